package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docchunk/internal/chunker"
	"github.com/dshills/docchunk/internal/storage"
	"github.com/dshills/docchunk/internal/tokenizer"
	"github.com/dshills/docchunk/pkg/types"
)

// mockChunker returns one chunk per document echoing its text
type mockChunker struct {
	calls  *atomic.Int32
	fail   map[string]error
	closed *atomic.Int32
}

func (m *mockChunker) Chunk(ctx context.Context, text, filename, strategy string) ([]types.Chunk, error) {
	m.calls.Add(1)
	if err := m.fail[filename]; err != nil {
		return nil, err
	}
	if text == "" {
		return []types.Chunk{}, nil
	}
	return []types.Chunk{{
		Text: text,
		Metadata: types.Metadata{
			ChunkID:          filename + "#0",
			SourceFile:       filename,
			ChunkingStrategy: strategy,
			Backend:          types.BackendStructural,
			ModalHint:        types.ModalProse,
			QualityFallback:  filename == "weak.md",
		},
	}}, nil
}

func (m *mockChunker) Close() error {
	m.closed.Add(1)
	return nil
}

type mockFactory struct {
	calls   atomic.Int32
	closed  atomic.Int32
	engines atomic.Int32
	fail    map[string]error
}

func (f *mockFactory) build() (Chunker, error) {
	f.engines.Add(1)
	return &mockChunker{calls: &f.calls, fail: f.fail, closed: &f.closed}, nil
}

func documents(n int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		docs[i] = Document{Filename: fmt.Sprintf("doc-%02d.md", i), Text: fmt.Sprintf("Document number %d.", i)}
	}
	return docs
}

func TestIndexDocuments_PreservesOrder(t *testing.T) {
	f := &mockFactory{}
	idx := New(f.build, WithWorkers(4))
	docs := documents(25)

	results, stats, err := idx.IndexDocuments(context.Background(), docs, nil)
	require.NoError(t, err)
	require.Len(t, results, len(docs))

	for i, r := range results {
		assert.Equal(t, docs[i].Filename, r.Filename)
		require.Len(t, r.Chunks, 1)
		assert.Equal(t, docs[i].Text, r.Chunks[0].Text)
		assert.Equal(t, types.DefaultStrategyName, r.Chunks[0].Metadata.ChunkingStrategy)
	}

	assert.Equal(t, 25, stats.DocumentsProcessed)
	assert.Equal(t, 25, stats.ChunksCreated)
	assert.Equal(t, 25, stats.BackendUsage[types.BackendStructural])
	assert.Equal(t, int32(4), f.engines.Load(), "one engine per worker")
	assert.Equal(t, int32(4), f.closed.Load(), "engines closed when workers finish")
}

func TestIndexDocuments_WorkersCappedByBatch(t *testing.T) {
	f := &mockFactory{}
	idx := New(f.build, WithWorkers(8))

	_, _, err := idx.IndexDocuments(context.Background(), documents(2), &Config{Strategy: "precise"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.engines.Load())
}

func TestIndexDocuments_Statistics(t *testing.T) {
	f := &mockFactory{fail: map[string]error{"broken.md": errors.New("boom")}}
	idx := New(f.build)

	docs := []Document{
		{Filename: "a.md", Text: "Alpha."},
		{Filename: "blank.md", Text: ""},
		{Filename: "broken.md", Text: "Broken."},
		{Filename: "weak.md", Text: "Weak."},
	}
	results, stats, err := idx.IndexDocuments(context.Background(), docs, &Config{Workers: 2})
	require.NoError(t, err, "per-document failures do not fail the batch")

	assert.Equal(t, 3, stats.DocumentsProcessed)
	assert.Equal(t, 1, stats.DocumentsEmpty)
	assert.Equal(t, 1, stats.DocumentsFailed)
	assert.Equal(t, 2, stats.ChunksCreated)
	assert.Equal(t, 1, stats.QualityFallbacks)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "broken.md")

	assert.Error(t, results[2].Err)
	assert.ErrorContains(t, Errors(results), "broken.md: boom")
	assert.NoError(t, Errors(results[:2]))
}

func TestIndexDocuments_UsesCache(t *testing.T) {
	cache, err := storage.NewMemoryCache(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	f := &mockFactory{}
	idx := New(f.build, WithCache(cache), WithWorkers(2))
	docs := documents(5)

	first, stats, err := idx.IndexDocuments(context.Background(), docs, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.DocumentsCached)
	assert.Equal(t, int32(5), f.calls.Load())

	second, stats, err := idx.IndexDocuments(context.Background(), docs, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.DocumentsCached)
	assert.Equal(t, int32(5), f.calls.Load(), "cached documents are not re-chunked")
	for i := range docs {
		assert.True(t, second[i].Cached)
		assert.Equal(t, first[i].Chunks, second[i].Chunks)
	}

	// A changed document misses
	docs[0].Text = "Changed text."
	_, stats, err = idx.IndexDocuments(context.Background(), docs, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.DocumentsCached)
	assert.Equal(t, int32(6), f.calls.Load())
}

func TestIndexDocuments_Errors(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		idx := New((&mockFactory{}).build)
		_, _, err := idx.IndexDocuments(context.Background(), nil, nil)
		assert.ErrorIs(t, err, ErrNoDocuments)
	})

	t.Run("engine construction fails", func(t *testing.T) {
		boom := errors.New("no engine")
		idx := New(func() (Chunker, error) { return nil, boom })
		_, _, err := idx.IndexDocuments(context.Background(), documents(3), nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		idx := New((&mockFactory{}).build)
		_, _, err := idx.IndexDocuments(ctx, documents(10), nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIndexDocuments_RealEngine(t *testing.T) {
	var mu sync.Mutex
	var engines []*chunker.Engine
	factory := func() (Chunker, error) {
		e, err := chunker.New(chunker.WithTokenizer(tokenizer.NewWord()))
		if err != nil {
			return nil, err
		}
		mu.Lock()
		engines = append(engines, e)
		mu.Unlock()
		return e, nil
	}

	docs := []Document{
		{Filename: "guide.md", Text: "# Guide\n\nInstall the tool with the package manager.\n\n## Usage\n\nRun the binary with a config file."},
		{Filename: "main.go", Text: "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"},
		{Filename: "empty.txt", Text: "  \n\t"},
	}

	results, stats, err := New(factory, WithWorkers(3)).IndexDocuments(context.Background(), docs, nil)
	require.NoError(t, err)
	require.NoError(t, Errors(results))

	assert.NotEmpty(t, results[0].Chunks)
	assert.NotEmpty(t, results[1].Chunks)
	assert.Empty(t, results[2].Chunks)
	assert.Equal(t, 1, stats.DocumentsEmpty)
	assert.Equal(t, "go", results[1].Chunks[0].Metadata.Language)
	assert.Len(t, engines, 3)
}
