package mcp

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/docchunk/internal/chunker"
	"github.com/dshills/docchunk/internal/config"
	"github.com/dshills/docchunk/internal/indexer"
	"github.com/dshills/docchunk/internal/storage"
	"github.com/dshills/docchunk/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "docchunk"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	cfg     config.Config
	logger  *zap.Logger
	engine  *serialEngine
	cache   storage.Cache // nil when caching is disabled
	indexer *indexer.Indexer
	lock    indexer.BatchLock
}

// serialEngine serializes calls into a shared engine
type serialEngine struct {
	mu sync.Mutex
	*chunker.Engine
}

func (s *serialEngine) Chunk(ctx context.Context, text, filename, strategy string) ([]types.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Engine.Chunk(ctx, text, filename, strategy)
}

// NewServer creates a new MCP server instance
func NewServer(cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	engine, err := chunker.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	var cache storage.Cache
	if cfg.Cache.Enabled {
		c, err := storage.NewMemoryCache(cfg.Cache.MaxDocuments)
		if err != nil {
			_ = engine.Close()
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		cache = c
	}

	opts := []indexer.Option{indexer.WithLogger(logger), indexer.WithWorkers(cfg.Workers)}
	if cache != nil {
		opts = append(opts, indexer.WithCache(cache))
	}
	idx := indexer.New(func() (indexer.Chunker, error) {
		return chunker.NewFromConfig(cfg, logger)
	}, opts...)

	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		cfg:     cfg,
		logger:  logger,
		engine:  &serialEngine{Engine: engine},
		cache:   cache,
		indexer: idx,
	}

	if err := s.registerTools(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve runs the MCP server on stdio until ctx is canceled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.Close() }()
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// Close releases the engine and the cache
func (s *Server) Close() error {
	err := s.engine.Close()
	if s.cache != nil {
		if cerr := s.cache.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(chunkDocumentTool(), s.handleChunkDocument)
	s.mcp.AddTool(chunkDocumentsTool(), s.handleChunkDocuments)
	s.mcp.AddTool(listStrategiesTool(), s.handleListStrategies)
	s.mcp.AddTool(getCapabilitiesTool(), s.handleGetCapabilities)
	return nil
}
