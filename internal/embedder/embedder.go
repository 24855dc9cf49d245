package embedder

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrProviderFailed      = errors.New("embedding provider failed")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrEmptyText           = errors.New("text cannot be empty")
	ErrNoProviderEnabled   = errors.New("no embedding provider configured")
	ErrModelPathRequired   = errors.New("model path required")
)

// Embedding is the vector of one sentence
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
}

// EmbeddingRequest asks for the vector of a single sentence
type EmbeddingRequest struct {
	Text  string
	Model string
}

// Validate rejects empty text
func (r EmbeddingRequest) Validate() error {
	if r.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// BatchEmbeddingRequest asks for the vectors of several sentences. Scoring
// sends all sentences of a chunk in one request.
type BatchEmbeddingRequest struct {
	Texts []string
	Model string
}

// Validate requires at least one text and rejects empty entries
func (r BatchEmbeddingRequest) Validate() error {
	if len(r.Texts) == 0 {
		return fmt.Errorf("%w: no texts provided", ErrInvalidInput)
	}
	for i, text := range r.Texts {
		if text == "" {
			return fmt.Errorf("%w: %w at index %d", ErrInvalidInput, ErrEmptyText, i)
		}
	}
	return nil
}

// BatchEmbeddingResponse holds one embedding per requested text, in order
type BatchEmbeddingResponse struct {
	Embeddings []*Embedding
	Provider   string
	Model      string
}

// Embedder generates sentence embeddings. Implementations never call
// remote services.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error)

	// GenerateBatch returns embeddings in the order of req.Texts
	GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error)

	// Dimension may be 0 until the provider has produced a vector
	Dimension() int

	Provider() string
	Model() string
	Close() error
}

type sentenceKey struct {
	model string
	sum   [sha256.Size]byte
}

// Cache remembers sentence vectors per model. Headings and boilerplate
// sentences recur across the chunks of a document, so the same sentence is
// often scored many times.
type Cache struct {
	entries *lru.Cache[sentenceKey, []float32]
}

// NewCache creates a cache holding up to size vectors; size <= 0 selects
// DefaultCacheSize
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[sentenceKey, []float32](size)
	if err != nil {
		// lru.New only fails on a non-positive size
		panic(err)
	}
	return &Cache{entries: entries}
}

// Lookup returns a copy of the cached vector of text under model
func (c *Cache) Lookup(model, text string) ([]float32, bool) {
	vec, ok := c.entries.Get(keyFor(model, text))
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Store caches vec for text under model
func (c *Cache) Store(model, text string, vec []float32) {
	c.entries.Add(keyFor(model, text), vec)
}

// Len returns the number of cached vectors
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached vector
func (c *Cache) Purge() {
	c.entries.Purge()
}

func keyFor(model, text string) sentenceKey {
	return sentenceKey{model: model, sum: sha256.Sum256([]byte(text))}
}

// unitVector scales v to length 1; a zero vector is returned unchanged
func unitVector(v []float32) []float32 {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	if sq == 0 {
		return v
	}
	norm := math.Sqrt(sq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either is a zero vector or their lengths differ
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
