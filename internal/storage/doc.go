// Package storage caches chunking results in SQLite.
//
// A chunking call is fully determined by the document text, its filename
// and the strategy name once the engine is configured, so results are keyed
// by the SHA-256 of the text plus those two strings. The batch indexer
// consults the cache before chunking and skips documents it has already
// seen.
//
// The database is opened in memory by default and is discarded with the
// process. Eviction drops the least recently used documents once the cache
// holds more than its configured limit.
//
// # Schema
//
//   - documents: one row per (content hash, filename, strategy)
//   - chunks: serialized output chunks, cascaded on document delete
//
// # Drivers
//
// The default build uses modernc.org/sqlite. Build with -tags cgo_sqlite to
// use github.com/mattn/go-sqlite3 instead.
//
// # Usage
//
//	cache, err := storage.NewMemoryCache(0)
//	if err != nil {
//	    return err
//	}
//	defer cache.Close()
//
//	key := storage.NewKey(text, "guide.md", "balanced")
//	chunks, err := cache.Get(ctx, key)
//	if errors.Is(err, storage.ErrNotFound) {
//	    chunks, err = engine.Chunk(ctx, text, "guide.md", "balanced")
//	    ...
//	    err = cache.Put(ctx, key, chunks)
//	}
package storage
