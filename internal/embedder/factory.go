package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables
const (
	EnvProvider  = "DOCCHUNK_EMBEDDING_PROVIDER"
	EnvModelPath = "DOCCHUNK_EMBEDDING_MODEL_PATH"
)

// DefaultCacheSize is the number of embeddings kept by factory-built providers
const DefaultCacheSize = 10000

// Config holds embedder configuration
type Config struct {
	Provider  string `toml:"provider" json:"provider"`
	ModelPath string `toml:"model_path" json:"model_path"`
	CacheSize int    `toml:"cache_size" json:"cache_size"`
}

// NewFromEnv creates an embedder based on environment variables
// Priority:
// 1. DOCCHUNK_EMBEDDING_PROVIDER (none, local, hugot)
// 2. hugot when DOCCHUNK_EMBEDDING_MODEL_PATH is set
// 3. none
//
// ErrNoProviderEnabled is returned when the resolved provider is none.
func NewFromEnv() (Embedder, error) {
	return New(Config{
		Provider:  DetectProvider(),
		ModelPath: os.Getenv(EnvModelPath),
		CacheSize: DefaultCacheSize,
	})
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", ProviderNone:
		return nil, ErrNoProviderEnabled
	case ProviderLocal:
		return NewLocalProvider(cache)
	case ProviderHugot:
		return NewHugotProvider(cfg.ModelPath, cache)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	provider := os.Getenv(EnvProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvModelPath) != "" {
		return ProviderHugot
	}

	return ProviderNone
}

// ValidProvider reports whether name is a known provider
func ValidProvider(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderNone, ProviderLocal, ProviderHugot:
		return true
	}
	return false
}
