package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docchunk/internal/config"
)

const guide = `# Guide

Install the tool with your package manager before running it.

## Usage

Run the binary with a configuration file and check the output carefully.`

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func call(args interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// decode unmarshals the text payload of a tool result
func decode(t *testing.T, res *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func requireMCPError(t *testing.T, err error, code int) {
	t.Helper()
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, code, mcpErr.Code)
}

func TestServer_Initialization(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s := newTestServer(t, nil)
		assert.NotNil(t, s.mcp)
		assert.NotNil(t, s.engine)
		assert.NotNil(t, s.indexer)
		assert.NotNil(t, s.cache)
	})

	t.Run("cache disabled", func(t *testing.T) {
		s := newTestServer(t, func(c *config.Config) { c.Cache.Enabled = false })
		assert.Nil(t, s.cache)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := config.Default()
		cfg.Workers = 0
		_, err := NewServer(cfg, nil)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestHandleChunkDocument(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	res, err := s.handleChunkDocument(ctx, call(map[string]interface{}{
		"text":     guide,
		"filename": "guide.md",
	}))
	require.NoError(t, err)

	out := decode(t, res)
	assert.Equal(t, "balanced", out["strategy"])
	assert.Equal(t, false, out["cached"])
	chunks, ok := out["chunks"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, chunks)
	assert.EqualValues(t, len(chunks), out["chunk_count"])

	first := chunks[0].(map[string]interface{})
	meta := first["metadata"].(map[string]interface{})
	assert.Equal(t, "guide.md", meta["source_file"])
	assert.Equal(t, "balanced", meta["chunking_strategy"])

	// The same document is served from the cache
	res, err = s.handleChunkDocument(ctx, call(map[string]interface{}{
		"text":     guide,
		"filename": "guide.md",
	}))
	require.NoError(t, err)
	assert.Equal(t, true, decode(t, res)["cached"])
}

func TestHandleChunkDocument_Strategy(t *testing.T) {
	s := newTestServer(t, nil)

	res, err := s.handleChunkDocument(context.Background(), call(map[string]interface{}{
		"text":     guide,
		"strategy": "no-such-strategy",
	}))
	require.NoError(t, err)
	assert.Equal(t, "balanced", decode(t, res)["strategy"], "unknown strategies resolve to balanced")

	res, err = s.handleChunkDocument(context.Background(), call(map[string]interface{}{
		"text":     guide,
		"strategy": "precise",
	}))
	require.NoError(t, err)
	assert.Equal(t, "precise", decode(t, res)["strategy"])
}

func TestHandleChunkDocument_EmptyText(t *testing.T) {
	s := newTestServer(t, nil)

	res, err := s.handleChunkDocument(context.Background(), call(map[string]interface{}{"text": "  \n"}))
	require.NoError(t, err)
	out := decode(t, res)
	assert.EqualValues(t, 0, out["chunk_count"])
	assert.Equal(t, []interface{}{}, out["chunks"])
}

func TestHandleChunkDocument_InvalidParams(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	_, err := s.handleChunkDocument(ctx, call("not a map"))
	requireMCPError(t, err, ErrorCodeInvalidParams)

	_, err = s.handleChunkDocument(ctx, call(map[string]interface{}{"filename": "a.md"}))
	requireMCPError(t, err, ErrorCodeTextRequired)

	_, err = s.handleChunkDocument(ctx, call(map[string]interface{}{"text": 42}))
	requireMCPError(t, err, ErrorCodeTextRequired)
}

func TestHandleChunkDocuments(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Workers = 2 })

	docs := make([]interface{}, 0, 4)
	for i := 0; i < 3; i++ {
		docs = append(docs, map[string]interface{}{
			"filename": fmt.Sprintf("doc-%d.md", i),
			"text":     fmt.Sprintf("# Part %d\n\nThis part explains step number %d of the setup process.", i, i),
		})
	}
	docs = append(docs, map[string]interface{}{"filename": "blank.md", "text": ""})

	res, err := s.handleChunkDocuments(context.Background(), call(map[string]interface{}{
		"documents": docs,
		"strategy":  "precise",
	}))
	require.NoError(t, err)

	out := decode(t, res)
	assert.Equal(t, "precise", out["strategy"])

	results := out["documents"].([]interface{})
	require.Len(t, results, 4)
	for i := 0; i < 3; i++ {
		r := results[i].(map[string]interface{})
		assert.Equal(t, fmt.Sprintf("doc-%d.md", i), r["filename"], "results keep input order")
		assert.NotZero(t, r["chunk_count"])
	}

	stats := out["statistics"].(map[string]interface{})
	assert.EqualValues(t, 4, stats["documents_processed"])
	assert.EqualValues(t, 1, stats["documents_empty"])
	assert.EqualValues(t, 0, stats["documents_failed"])
}

func TestHandleChunkDocuments_InvalidParams(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing documents", map[string]interface{}{}},
		{"empty documents", map[string]interface{}{"documents": []interface{}{}}},
		{"document not an object", map[string]interface{}{"documents": []interface{}{"text"}}},
		{"document without text", map[string]interface{}{"documents": []interface{}{map[string]interface{}{"filename": "a.md"}}}},
		{"too many workers", map[string]interface{}{
			"documents": []interface{}{map[string]interface{}{"text": "x"}},
			"workers":   float64(1000),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.handleChunkDocuments(ctx, call(tt.args))
			requireMCPError(t, err, ErrorCodeInvalidParams)
		})
	}

	t.Run("too many documents", func(t *testing.T) {
		docs := make([]interface{}, MaxBatchDocuments+1)
		for i := range docs {
			docs[i] = map[string]interface{}{"text": "x"}
		}
		_, err := parseDocuments(docs)
		assert.ErrorIs(t, err, ErrTooManyDocuments)
	})
}

func TestHandleChunkDocuments_Busy(t *testing.T) {
	s := newTestServer(t, nil)
	require.True(t, s.lock.TryAcquire())
	defer s.lock.Release()

	_, err := s.handleChunkDocuments(context.Background(), call(map[string]interface{}{
		"documents": []interface{}{map[string]interface{}{"text": "hello"}},
	}))
	requireMCPError(t, err, ErrorCodeIndexingInProgress)
}

func TestHandleListStrategies(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.DefaultStrategy = "precise" })

	res, err := s.handleListStrategies(context.Background(), call(map[string]interface{}{}))
	require.NoError(t, err)
	out := decode(t, res)

	assert.Equal(t, "precise", out["default"])
	strategies := out["strategies"].([]interface{})
	names := make([]string, 0, len(strategies))
	for _, st := range strategies {
		names = append(names, st.(map[string]interface{})["name"].(string))
	}
	assert.Contains(t, names, "balanced")
	assert.Contains(t, names, "precise")
}

func TestHandleGetCapabilities(t *testing.T) {
	t.Run("with cache", func(t *testing.T) {
		s := newTestServer(t, nil)
		_, err := s.handleChunkDocument(context.Background(), call(map[string]interface{}{"text": guide}))
		require.NoError(t, err)

		res, err := s.handleGetCapabilities(context.Background(), call(map[string]interface{}{}))
		require.NoError(t, err)
		out := decode(t, res)

		assert.Equal(t, false, out["has_embedder"])
		assert.Equal(t, true, out["has_segmenter"])
		assert.Contains(t, out["languages"], "go")

		cache := out["cache"].(map[string]interface{})
		assert.Equal(t, true, cache["enabled"])
		assert.EqualValues(t, 1, cache["documents"])
		assert.EqualValues(t, 1, cache["misses"])
	})

	t.Run("degraded", func(t *testing.T) {
		s := newTestServer(t, func(c *config.Config) {
			c.Cache.Enabled = false
			c.Segmenter.Enabled = false
			c.Parser.Enabled = false
		})
		res, err := s.handleGetCapabilities(context.Background(), call(map[string]interface{}{}))
		require.NoError(t, err)
		out := decode(t, res)

		assert.Equal(t, false, out["has_segmenter"])
		assert.Equal(t, []interface{}{}, out["languages"])
		assert.Equal(t, map[string]interface{}{"enabled": false}, out["cache"])
	})
}
