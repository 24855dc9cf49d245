package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dshills/docchunk/internal/embedder"
	"github.com/dshills/docchunk/internal/enricher"
	"github.com/dshills/docchunk/internal/quality"
	"github.com/dshills/docchunk/internal/storage"
	"github.com/dshills/docchunk/internal/tokenizer"
	"github.com/dshills/docchunk/pkg/types"
)

// Environment overrides
const (
	EnvStrategy          = "DOCCHUNK_STRATEGY"
	EnvTokenizerEncoding = "DOCCHUNK_TOKENIZER_ENCODING"
	EnvWorkers           = "DOCCHUNK_WORKERS"
	EnvConfig            = "DOCCHUNK_CONFIG"
)

const (
	DefaultSegmenterCacheSize = 16
	DefaultWorkers            = 4
	MaxWorkers                = 64
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete engine configuration
type Config struct {
	DefaultStrategy string                   `toml:"default_strategy"`
	Strategies      []types.ChunkingStrategy `toml:"strategies"`
	Tokenizer       TokenizerConfig          `toml:"tokenizer"`
	Embedding       embedder.Config          `toml:"embedding"`
	Segmenter       SegmenterConfig          `toml:"segmenter"`
	Parser          ParserConfig             `toml:"parser"`
	Enrichment      enricher.Config          `toml:"enrichment"`
	Quality         quality.Config           `toml:"quality"`
	Cache           CacheConfig              `toml:"cache"`
	Workers         int                      `toml:"workers"`
}

type TokenizerConfig struct {
	Encoding string `toml:"encoding"`
}

type SegmenterConfig struct {
	Enabled   bool `toml:"enabled"`
	CacheSize int  `toml:"cache_size"`
}

type ParserConfig struct {
	Enabled bool `toml:"enabled"`

	// Languages restricts the grammars; empty means all
	Languages []string `toml:"languages"`
}

// CacheConfig controls the in-memory chunk result cache
type CacheConfig struct {
	Enabled      bool `toml:"enabled"`
	MaxDocuments int  `toml:"max_documents"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		DefaultStrategy: types.DefaultStrategyName,
		Tokenizer:       TokenizerConfig{Encoding: tokenizer.DefaultEncoding},
		Embedding:       embedder.Config{Provider: embedder.ProviderNone, CacheSize: embedder.DefaultCacheSize},
		Segmenter:       SegmenterConfig{Enabled: true, CacheSize: DefaultSegmenterCacheSize},
		Parser:          ParserConfig{Enabled: true},
		Enrichment:      enricher.DefaultConfig(),
		Quality:         quality.DefaultConfig(),
		Cache:           CacheConfig{Enabled: true, MaxDocuments: storage.DefaultMaxDocuments},
		Workers:         DefaultWorkers,
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins), then
// validates. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvStrategy); v != "" {
		c.DefaultStrategy = v
	}
	if v := os.Getenv(EnvTokenizerEncoding); v != "" {
		c.Tokenizer.Encoding = v
	}
	if v := os.Getenv(embedder.EnvProvider); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv(embedder.EnvModelPath); v != "" {
		c.Embedding.ModelPath = v
		if os.Getenv(embedder.EnvProvider) == "" && isNone(c.Embedding.Provider) {
			c.Embedding.Provider = embedder.ProviderHugot
		}
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvWorkers, v)
		}
		c.Workers = n
	}
	return nil
}

func isNone(provider string) bool {
	p := strings.ToLower(strings.TrimSpace(provider))
	return p == "" || p == embedder.ProviderNone
}

// Validate checks the configuration
func (c Config) Validate() error {
	table, err := c.StrategyTable()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.DefaultStrategy != "" && !table.Has(c.DefaultStrategy) {
		return fmt.Errorf("%w: unknown default strategy %q", ErrInvalidConfig, c.DefaultStrategy)
	}
	if !embedder.ValidProvider(c.Embedding.Provider) {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}
	if c.Segmenter.CacheSize < 0 {
		return fmt.Errorf("%w: segmenter cache_size cannot be negative", ErrInvalidConfig)
	}
	if c.Cache.MaxDocuments < 0 {
		return fmt.Errorf("%w: cache max_documents cannot be negative", ErrInvalidConfig)
	}
	if c.Workers < 1 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers must be between 1 and %d", ErrInvalidConfig, MaxWorkers)
	}
	if err := c.Enrichment.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Quality.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// StrategyTable builds the preset table extended with custom strategies
func (c Config) StrategyTable() (*types.StrategyTable, error) {
	return types.NewStrategyTable(c.Strategies...)
}
