package types

import "errors"

// Domain errors for type validation
var (
	// Strategy errors
	ErrInvalidStrategy = errors.New("invalid chunking strategy")

	// Block and chunk errors
	ErrInvalidOffsets   = errors.New("invalid character offsets")
	ErrEmptyContent     = errors.New("content cannot be empty")
	ErrInvalidScore     = errors.New("score must be between 0 and 1")
	ErrMissingChunkID   = errors.New("chunk ID is required")
	ErrUnknownModalHint = errors.New("unknown modal hint")
)
