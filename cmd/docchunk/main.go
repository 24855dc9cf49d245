package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/dshills/docchunk/internal/chunker"
	"github.com/dshills/docchunk/internal/config"
	"github.com/dshills/docchunk/internal/mcp"
	"github.com/dshills/docchunk/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("docchunk\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	// stdout is reserved for MCP protocol messages
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(os.Getenv(config.EnvConfig))
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 2 && os.Args[1] == "chunk" {
		if err := chunkFile(ctx, cfg, logger, os.Args[2]); err != nil {
			logger.Fatal("chunk failed", zap.Error(err))
		}
		return
	}

	logger.Info("docchunk MCP server starting",
		zap.String("version", version),
		zap.String("build_mode", storage.BuildMode),
		zap.String("default_strategy", cfg.DefaultStrategy),
		zap.Int("workers", cfg.Workers))

	server, err := mcp.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create MCP server", zap.Error(err))
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
	case err := <-errChan:
		if err != nil && ctx.Err() == nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

// chunkFile chunks one file with the default strategy and prints the
// chunks as JSON on stdout
func chunkFile(ctx context.Context, cfg config.Config, logger *zap.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	engine, err := chunker.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	chunks, err := engine.Chunk(ctx, string(data), filepath.Base(path), cfg.DefaultStrategy)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(chunks)
}
