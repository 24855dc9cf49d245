package chunker

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/docchunk/internal/config"
	"github.com/dshills/docchunk/internal/embedder"
	"github.com/dshills/docchunk/internal/parser"
)

// NewFromConfig builds an Engine from a validated config. Extra options are
// applied after the config and win over it.
//
// An embedding provider that cannot be built is logged and skipped so the
// engine still runs with heuristic coherence scoring.
func NewFromConfig(cfg config.Config, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := []Option{
		WithLogger(logger),
		WithEncoding(cfg.Tokenizer.Encoding),
		WithStrategies(cfg.Strategies...),
		WithEnrichment(cfg.Enrichment),
		WithQuality(cfg.Quality),
		WithSegmenterCacheSize(cfg.Segmenter.CacheSize),
	}
	if !cfg.Segmenter.Enabled {
		base = append(base, WithSegmenter(nil))
	}
	if !cfg.Parser.Enabled {
		base = append(base, WithGrammars(nil))
	} else if len(cfg.Parser.Languages) > 0 {
		base = append(base, WithGrammars(parser.DefaultRegistry(cfg.Parser.Languages...)))
	}

	emb, err := embedder.New(cfg.Embedding)
	switch {
	case err == nil:
		base = append(base, WithEmbedder(emb))
	case errors.Is(err, embedder.ErrNoProviderEnabled):
		emb = nil
	default:
		emb = nil
		logger.Warn("embedding provider unavailable, using heuristic coherence",
			zap.String("provider", cfg.Embedding.Provider),
			zap.Error(err))
	}

	e, err := New(append(base, opts...)...)
	if err != nil {
		if emb != nil {
			_ = emb.Close()
		}
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	e.ownsEmbedder = emb != nil
	return e, nil
}
