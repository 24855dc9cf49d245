// Package chunker turns documents into bounded, quality-scored chunks.
//
// A document is split into heading-delimited blocks. Each block is
// classified by content shape and handed to one of three backends:
//
//   - syntax_tree: code with a registered grammar, chunked per declaration
//   - token_budget: prose, split by a token-aware Segmenter
//   - structural: everything else, and the fallback for the other two
//
// Backends report a FallbackReason instead of failing, so a missing or
// misbehaving optional engine only moves a block to the structural backend.
// The resulting chunks are enriched, scored and passed through the quality
// gate, which promotes the best candidates when none pass.
//
// # Basic Usage
//
//	e, err := chunker.New(chunker.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	chunks, err := e.Chunk(ctx, text, "docs/guide.md", "balanced")
//
// Chunk offsets are character offsets into the input text and every chunk's
// text is the verbatim source slice at those offsets.
package chunker
