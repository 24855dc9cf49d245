package indexer

import "sync/atomic"

// BatchLock admits one batch at a time. A second caller gets false from
// TryAcquire and should report busy rather than queue behind the first.
type BatchLock struct {
	busy atomic.Bool
}

// TryAcquire takes the lock if it is free
func (l *BatchLock) TryAcquire() bool {
	return l.busy.CompareAndSwap(false, true)
}

// Release frees the lock; only the holder may call it
func (l *BatchLock) Release() {
	l.busy.Store(false)
}

// Busy reports whether a batch currently holds the lock
func (l *BatchLock) Busy() bool {
	return l.busy.Load()
}
