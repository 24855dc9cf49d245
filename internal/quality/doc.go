// Package quality scores chunks on three axes and gates them.
//
// Semantic coherence uses mean pairwise cosine similarity of sentence
// embeddings when an embedder is configured and falls back to sentence
// length and vocabulary heuristics otherwise. Structural integrity rewards
// chunks that open on headings and end cleanly. Retrieval quality combines
// vocabulary diversity, technical and actionable vocabulary and how close
// the chunk is to the ideal token range.
//
// The gate keeps chunks meeting every minimum. If candidates exist but none
// pass, the best few by overall score are promoted and flagged so that a
// non-empty document never yields an empty result.
package quality
