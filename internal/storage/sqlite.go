package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dshills/docchunk/pkg/types"
)

// MemoryPath keeps the database inside the process
const MemoryPath = ":memory:"

// DefaultMaxDocuments bounds the number of cached documents
const DefaultMaxDocuments = 512

var _ Cache = (*SQLiteCache)(nil)

// SQLiteCache implements Cache on SQLite
type SQLiteCache struct {
	db           *sql.DB
	maxDocuments int

	clock  atomic.Int64 // recency stamp for eviction
	hits   atomic.Int64
	misses atomic.Int64
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// An in-memory database lives and dies with its connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if dbPath != MemoryPath {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteCache opens a cache at dbPath holding at most maxDocuments
// documents. maxDocuments <= 0 uses DefaultMaxDocuments.
func NewSQLiteCache(dbPath string, maxDocuments int) (*SQLiteCache, error) {
	if maxDocuments <= 0 {
		maxDocuments = DefaultMaxDocuments
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteCache{db: db, maxDocuments: maxDocuments}, nil
}

// NewMemoryCache opens an in-process cache
func NewMemoryCache(maxDocuments int) (*SQLiteCache, error) {
	return NewSQLiteCache(MemoryPath, maxDocuments)
}

// Close closes the database connection
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

func (s *SQLiteCache) Get(ctx context.Context, key Key) ([]types.Chunk, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var docID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE content_hash = ? AND filename = ? AND strategy = ?`,
		key.ContentHash[:], key.Filename, key.Strategy).Scan(&docID)
	if errors.Is(err, sql.ErrNoRows) {
		s.misses.Add(1)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up document: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM chunks WHERE document_id = ? ORDER BY chunk_index`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]types.Chunk, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var c types.Chunk
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, fmt.Errorf("failed to decode chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE documents SET hit_count = hit_count + 1, last_used = ? WHERE id = ?`,
		s.clock.Add(1), docID); err != nil {
		return nil, fmt.Errorf("failed to touch document: %w", err)
	}

	s.hits.Add(1)
	return chunks, nil
}

func (s *SQLiteCache) Put(ctx context.Context, key Key, chunks []types.Chunk) error {
	if err := key.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Replacing the document cascades to its chunks
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE content_hash = ? AND filename = ? AND strategy = ?`,
		key.ContentHash[:], key.Filename, key.Strategy); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO documents (content_hash, filename, strategy, chunk_count, last_used) VALUES (?, ?, ?, ?, ?)`,
		key.ContentHash[:], key.Filename, key.Strategy, len(chunks), s.clock.Add(1))
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	docID, err := result.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (document_id, chunk_index, chunk_id, backend, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range chunks {
		payload, err := json.Marshal(&chunks[i])
		if err != nil {
			return fmt.Errorf("failed to encode chunk: %w", err)
		}
		m := chunks[i].Metadata
		if _, err := stmt.ExecContext(ctx, docID, i, m.ChunkID, string(m.Backend), string(payload)); err != nil {
			return fmt.Errorf("failed to store chunk: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE id NOT IN (SELECT id FROM documents ORDER BY last_used DESC LIMIT ?)`,
		s.maxDocuments); err != nil {
		return fmt.Errorf("failed to evict documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteCache) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Hits:         s.hits.Load(),
		Misses:       s.misses.Load(),
		BackendUsage: make(map[types.BackendName]int),
		BuildMode:    BuildMode,
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&stats.Documents); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT backend, COUNT(*) FROM chunks GROUP BY backend`)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var backend string
		var n int
		if err := rows.Scan(&backend, &n); err != nil {
			return nil, err
		}
		stats.BackendUsage[types.BackendName(backend)] = n
		stats.Chunks += n
	}
	return stats, rows.Err()
}

func (s *SQLiteCache) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}
