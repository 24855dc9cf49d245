package storage

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/dshills/docchunk/pkg/types"
)

var (
	// ErrNotFound is returned when no cached result exists for a key
	ErrNotFound = errors.New("not found")
	// ErrInvalidKey is returned for keys missing a strategy
	ErrInvalidKey = errors.New("invalid cache key")
)

// Cache stores chunking results keyed by document identity
type Cache interface {
	// Get returns the cached chunks for key, or ErrNotFound
	Get(ctx context.Context, key Key) ([]types.Chunk, error)
	// Put replaces the cached chunks for key
	Put(ctx context.Context, key Key, chunks []types.Chunk) error
	// Stats reports cache usage
	Stats(ctx context.Context) (*Stats, error)
	// Purge drops every cached result
	Purge(ctx context.Context) error
	Close() error
}

// Key identifies one chunking call. Output depends only on the text,
// the filename and the strategy for a fixed engine configuration.
type Key struct {
	ContentHash [32]byte
	Filename    string
	Strategy    string
}

// NewKey builds a key from the document text
func NewKey(text, filename, strategy string) Key {
	return Key{
		ContentHash: sha256.Sum256([]byte(text)),
		Filename:    filename,
		Strategy:    strategy,
	}
}

// Validate checks that the key can address a cache entry
func (k Key) Validate() error {
	if k.Strategy == "" {
		return fmt.Errorf("%w: strategy is required", ErrInvalidKey)
	}
	return nil
}

// Stats summarizes the cache contents
type Stats struct {
	Documents    int
	Chunks       int
	Hits         int64
	Misses       int64
	BackendUsage map[types.BackendName]int
	BuildMode    string
}
