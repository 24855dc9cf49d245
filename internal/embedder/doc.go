// Package embedder generates sentence embeddings for coherence scoring.
//
// Embeddings are never produced for storage and no provider calls a remote
// service. Two providers exist:
//
// Local (feature hashing):
//   - Dimensions: 384
//   - Words are lower-cased and hashed into signed buckets
//   - Deterministic, no model files needed
//
// Hugot (sentence transformer):
//   - Loads an ONNX model directory already on disk
//   - Runs the feature extraction pipeline with the pure Go backend
//   - Dimension known after the first run
//
// # Basic Usage
//
//	emb, err := embedder.New(embedder.Config{Provider: "local"})
//	if errors.Is(err, embedder.ErrNoProviderEnabled) {
//	    // coherence falls back to heuristics
//	}
//	defer emb.Close()
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: sentences,
//	})
//	sim := embedder.CosineSimilarity(resp.Embeddings[0].Vector, resp.Embeddings[1].Vector)
//
// # Provider Selection
//
// NewFromEnv selects a provider from the environment:
//
//  1. If DOCCHUNK_EMBEDDING_PROVIDER is set → use specified provider
//  2. Else if DOCCHUNK_EMBEDDING_MODEL_PATH is set → use hugot
//  3. Else → none (ErrNoProviderEnabled)
//
// # Caching
//
// Providers share an LRU cache keyed by model and the SHA-256 of the text, so repeated
// sentences across chunks are embedded once.
package embedder
