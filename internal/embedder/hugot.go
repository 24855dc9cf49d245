package embedder

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// HugotProvider runs a sentence-transformer feature extraction pipeline on
// a model directory that is already on disk. It never downloads models.
type HugotProvider struct {
	mu       sync.Mutex
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	model    string
	dim      int
	cache    *Cache
}

// NewHugotProvider loads the ONNX model at modelPath into a pure Go session
func NewHugotProvider(modelPath string, cache *Cache) (*HugotProvider, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("%w: hugot provider", ErrModelPathRequired)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "docchunk-coherence",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create feature extraction pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create feature extraction pipeline: %w", err)
	}

	return &HugotProvider{
		session:  session,
		pipeline: pipeline,
		model:    filepath.Base(modelPath),
		cache:    cache,
	}, nil
}

func (h *HugotProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp, err := h.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{req.Text}, Model: req.Model})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings[0], nil
}

// GenerateBatch embeds the texts missing from the cache in a single
// pipeline run
func (h *HugotProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	var missing []string
	var missingIdx []int
	for i, text := range req.Texts {
		if h.cache != nil {
			if vec, ok := h.cache.Lookup(h.model, text); ok {
				embeddings[i] = &Embedding{Vector: vec, Dimension: len(vec), Provider: ProviderHugot, Model: h.model}
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		h.mu.Lock()
		if h.pipeline == nil {
			h.mu.Unlock()
			return nil, fmt.Errorf("%w: provider closed", ErrProviderFailed)
		}
		out, err := h.pipeline.RunPipeline(missing)
		h.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
		}
		if len(out.Embeddings) != len(missing) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrProviderFailed, len(out.Embeddings), len(missing))
		}

		for j, vec := range out.Embeddings {
			h.mu.Lock()
			h.dim = len(vec)
			h.mu.Unlock()
			if h.cache != nil {
				h.cache.Store(h.model, missing[j], append([]float32(nil), vec...))
			}
			embeddings[missingIdx[j]] = &Embedding{
				Vector:    vec,
				Dimension: len(vec),
				Provider:  ProviderHugot,
				Model:     h.model,
			}
		}
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderHugot,
		Model:      h.model,
	}, nil
}

// Dimension is known after the first pipeline run; 0 before that
func (h *HugotProvider) Dimension() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dim
}

func (h *HugotProvider) Provider() string {
	return ProviderHugot
}

func (h *HugotProvider) Model() string {
	return h.model
}

// Close destroys the hugot session. It is safe to call more than once.
func (h *HugotProvider) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		return nil
	}
	err := h.session.Destroy()
	h.session = nil
	h.pipeline = nil
	return err
}
