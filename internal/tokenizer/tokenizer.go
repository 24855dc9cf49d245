// Package tokenizer provides the canonical tokenizer used for every token
// budget in docchunk.
//
// The default implementation wraps tiktoken with embedded BPE ranks, so no
// network access is needed. Word is a deterministic fallback used when the
// BPE tables cannot be constructed, and in tests.
package tokenizer

import "errors"

// DefaultEncoding is the BPE encoding used when none is configured
const DefaultEncoding = "cl100k_base"

var (
	ErrEncodingUnavailable = errors.New("tokenizer encoding unavailable")
)

// Tokenizer encodes text to token ids and back.
// Implementations must be safe for concurrent use.
type Tokenizer interface {
	// Encode returns the token ids for text
	Encode(text string) []int

	// Decode returns the text for token ids
	Decode(ids []int) string

	// Count returns the number of tokens in text
	Count(text string) int

	// Name identifies the encoding
	Name() string
}

// Tail returns the decoded text of the last n tokens of text.
// It returns "" when n <= 0 and the whole text when it has n tokens or fewer.
func Tail(t Tokenizer, text string, n int) string {
	if n <= 0 || text == "" {
		return ""
	}
	ids := t.Encode(text)
	if len(ids) <= n {
		return text
	}
	return t.Decode(ids[len(ids)-n:])
}
