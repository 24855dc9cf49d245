package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/docchunk/internal/config"
	"github.com/dshills/docchunk/internal/indexer"
	"github.com/dshills/docchunk/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress = -32002 // Another batch is already running
	ErrorCodeTextRequired       = -32004 // Text parameter is missing
)

// handleChunkDocument handles the chunk_document tool invocation
func (s *Server) handleChunkDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	text, ok := args["text"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeTextRequired, "text parameter is required", map[string]interface{}{
			"param":  "text",
			"reason": "missing or not a string",
		})
	}

	doc := indexer.Document{
		Filename: getStringDefault(args, "filename", ""),
		Text:     text,
	}
	strategy := s.strategyName(args)

	res := s.indexer.IndexDocument(ctx, s.engine, doc, strategy)
	if res.Err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "chunking failed", map[string]interface{}{
			"error": res.Err.Error(),
		})
	}

	response := map[string]interface{}{
		"filename":    doc.Filename,
		"strategy":    strategy,
		"chunk_count": len(res.Chunks),
		"cached":      res.Cached,
		"chunks":      res.Chunks,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleChunkDocuments handles the chunk_documents tool invocation
func (s *Server) handleChunkDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	docs, err := parseDocuments(args["documents"])
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid documents", map[string]interface{}{
			"param":  "documents",
			"reason": err.Error(),
		})
	}

	workers := getIntDefault(args, "workers", s.cfg.Workers)
	if workers < 1 || workers > config.MaxWorkers {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("workers must be between 1 and %d", config.MaxWorkers), map[string]interface{}{
			"param": "workers",
			"value": workers,
		})
	}

	if !s.lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "another batch is already running", nil)
	}
	defer s.lock.Release()

	strategy := s.strategyName(args)
	results, stats, err := s.indexer.IndexDocuments(ctx, docs, &indexer.Config{
		Workers:  workers,
		Strategy: strategy,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "batch chunking failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	out := make([]map[string]interface{}, len(results))
	for i, r := range results {
		entry := map[string]interface{}{
			"filename":    r.Filename,
			"chunk_count": len(r.Chunks),
			"cached":      r.Cached,
			"chunks":      r.Chunks,
		}
		if r.Err != nil {
			entry["error"] = r.Err.Error()
		}
		out[i] = entry
	}

	response := map[string]interface{}{
		"strategy":  strategy,
		"documents": out,
		"statistics": map[string]interface{}{
			"documents_processed": stats.DocumentsProcessed,
			"documents_empty":     stats.DocumentsEmpty,
			"documents_cached":    stats.DocumentsCached,
			"documents_failed":    stats.DocumentsFailed,
			"chunks_created":      stats.ChunksCreated,
			"quality_fallbacks":   stats.QualityFallbacks,
			"backend_usage":       stats.BackendUsage,
			"duration_ms":         stats.Duration.Milliseconds(),
		},
	}

	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListStrategies handles the list_strategies tool invocation
func (s *Server) handleListStrategies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	response := map[string]interface{}{
		"default":    s.defaultStrategy(),
		"strategies": s.engine.Strategies(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetCapabilities handles the get_capabilities tool invocation
func (s *Server) handleGetCapabilities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	caps := s.engine.Capabilities()
	response := map[string]interface{}{
		"has_embedder":  caps.HasEmbedder,
		"has_segmenter": caps.HasSegmenter,
		"languages":     caps.Languages(),
		"workers":       s.cfg.Workers,
	}

	if s.cache == nil {
		response["cache"] = map[string]interface{}{"enabled": false}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	stats, err := s.cache.Stats(ctx)
	if err != nil {
		s.logger.Warn("cache stats unavailable", zap.Error(err))
		return nil, newMCPError(ErrorCodeInternalError, "failed to read cache statistics", map[string]interface{}{
			"error": err.Error(),
		})
	}
	response["cache"] = map[string]interface{}{
		"enabled":       true,
		"documents":     stats.Documents,
		"chunks":        stats.Chunks,
		"hits":          stats.Hits,
		"misses":        stats.Misses,
		"backend_usage": stats.BackendUsage,
		"build_mode":    stats.BuildMode,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

func (s *Server) defaultStrategy() string {
	if s.cfg.DefaultStrategy != "" {
		return s.cfg.DefaultStrategy
	}
	return types.DefaultStrategyName
}

// strategyName resolves the strategy argument to the name reported in
// output metadata
func (s *Server) strategyName(args map[string]interface{}) string {
	name := getStringDefault(args, "strategy", "")
	if name == "" {
		return s.defaultStrategy()
	}
	return s.engine.Strategy(name).Name
}

// parseDocuments converts the decoded documents argument
func parseDocuments(raw interface{}) ([]indexer.Document, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, ErrDocumentsRequired
	}
	if len(items) == 0 {
		return nil, ErrDocumentsRequired
	}
	if len(items) > MaxBatchDocuments {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyDocuments, len(items), MaxBatchDocuments)
	}

	docs := make([]indexer.Document, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: documents[%d] is not an object", ErrInvalidDocument, i)
		}
		text, ok := m["text"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: documents[%d].text is required", ErrInvalidDocument, i)
		}
		docs[i] = indexer.Document{Filename: getStringDefault(m, "filename", ""), Text: text}
	}
	return docs, nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation errors

var (
	ErrDocumentsRequired = errors.New("documents must be a non-empty array")
	ErrTooManyDocuments  = errors.New("too many documents")
	ErrInvalidDocument   = errors.New("invalid document")
)
