// Package types provides shared type definitions for the docchunk engine.
//
// These types describe every stage of the chunking pipeline, from the
// structural blocks found in a document to the scored chunks handed to an
// indexing collaborator.
//
// # Pipeline Types
//
// StructuralBlock is a heading-delimited region of the source document:
//
//	block := types.StructuralBlock{
//	    Heading:     "Installation",
//	    Level:       2,
//	    SectionPath: []string{"Guide", "Installation"},
//	    Content:     "Run make install.",
//	}
//
// RawChunk is produced by a segmentation backend, EnrichedChunk adds lexical
// and routing metadata, and ScoredChunk adds the three quality scores.
//
// # Output
//
// Chunk is the serialized output unit. Its Metadata field names are a storage
// contract:
//
//	{"text": "...", "metadata": {"chunk_id": "...", "section_path": ["Guide"], ...}}
//
// # Offsets
//
// All StartChar/EndChar values are character (rune) offsets into the
// original document. CharIndex converts byte offsets produced internally:
//
//	idx := types.NewCharIndex(doc)
//	start := idx.Char(byteOffset)
//
// # Strategies
//
// ChunkingStrategy presets are resolved through a StrategyTable. Unknown
// names fall back to "balanced":
//
//	table := types.DefaultStrategies()
//	s := table.Lookup("does-not-exist") // s.Name == "balanced"
//
// A strategy whose token_overlap is not smaller than max_tokens is rejected
// with ErrInvalidStrategy.
package types
