package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"regexp"
	"strings"
)

// Provider configuration
const (
	ProviderNone  = "none"
	ProviderLocal = "local"
	ProviderHugot = "hugot"

	LocalDimension = 384
	LocalModel     = "feature-hash-384"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// LocalProvider embeds text by hashing its lower-cased words into a fixed
// number of signed buckets. Texts sharing vocabulary get similar vectors,
// which is enough for coherence scoring without a model on disk.
type LocalProvider struct {
	model string
	cache *Cache
}

// NewLocalProvider creates a local feature-hashing embedder
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{
		model: LocalModel,
		cache: cache,
	}, nil
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		vec []float32
		ok  bool
	)
	if l.cache != nil {
		vec, ok = l.cache.Lookup(l.model, req.Text)
	}
	if !ok {
		vec = hashVector(req.Text)
		if l.cache != nil {
			l.cache.Store(l.model, req.Text, append([]float32(nil), vec...))
		}
	}

	return &Embedding{
		Vector:    vec,
		Dimension: LocalDimension,
		Provider:  ProviderLocal,
		Model:     l.model,
	}, nil
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: text, Model: req.Model})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderLocal,
		Model:      l.model,
	}, nil
}

func (l *LocalProvider) Dimension() int {
	return LocalDimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}

func hashVector(text string) []float32 {
	vector := make([]float32, LocalDimension)

	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		// No words: spread the text hash so the vector is never zero
		textHash := sha256.Sum256([]byte(text))
		for i := 0; i < len(textHash); i++ {
			vector[i] = float32(textHash[i]) / 255.0
		}
		return unitVector(vector)
	}

	for _, w := range words {
		sum := sha256.Sum256([]byte(w))
		h := binary.BigEndian.Uint64(sum[:8])
		idx := h % LocalDimension
		if h>>63 == 1 {
			vector[idx]--
		} else {
			vector[idx]++
		}
	}
	return unitVector(vector)
}
