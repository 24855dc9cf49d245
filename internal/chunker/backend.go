package chunker

import (
	"strings"
	"unicode"

	"github.com/dshills/docchunk/internal/tokenizer"
	"github.com/dshills/docchunk/pkg/types"
)

// FallbackReason explains why a backend handed a block to a safer backend
type FallbackReason string

const (
	FallbackNone                  FallbackReason = ""
	FallbackSegmenterUnavailable  FallbackReason = "segmenter_unavailable"
	FallbackSegmenterFailed       FallbackReason = "segmenter_failed"
	FallbackSegmenterIncompatible FallbackReason = "segmenter_incompatible"
	FallbackGrammarUnavailable    FallbackReason = "grammar_unavailable"
	FallbackParseFailed           FallbackReason = "parse_failed"
	FallbackNoDeclarations        FallbackReason = "no_declarations"
)

// Segment is a span of block content chosen by a backend.
// Start and End are byte offsets into the block content and Text is always
// content[Start:End].
type Segment struct {
	Text    string
	Start   int
	End     int
	Backend types.BackendName
}

// Result is the outcome of running one backend over one block.
// A non-empty Fallback with no segments means the block must be handed to
// the structural backend.
type Result struct {
	Segments []Segment
	Fallback FallbackReason
}

// Deferred reports whether the backend gave up on the block
func (r Result) Deferred() bool {
	return r.Fallback != FallbackNone && len(r.Segments) == 0
}

func deferTo(reason FallbackReason) Result {
	return Result{Fallback: reason}
}

// newSegment trims whitespace from content[start:end] and reports false when
// nothing is left
func newSegment(content string, start, end int, backend types.BackendName) (Segment, bool) {
	if start < 0 {
		start = 0
	}
	if end > len(content) {
		end = len(content)
	}
	if start >= end {
		return Segment{}, false
	}
	region := content[start:end]
	left := strings.TrimLeftFunc(region, unicode.IsSpace)
	text := strings.TrimRightFunc(left, unicode.IsSpace)
	if text == "" {
		return Segment{}, false
	}
	s := start + len(region) - len(left)
	return Segment{Text: text, Start: s, End: s + len(text), Backend: backend}, true
}

// shift moves segments produced for content[base:] into content coordinates
func shift(segs []Segment, base int) []Segment {
	for i := range segs {
		segs[i].Start += base
		segs[i].End += base
	}
	return segs
}

// mergeSmall joins segments under the strategy's MinSectionTokens with a
// neighbour, preferring the following one, when the joined span stays
// within MaxTokens. The joined segment keeps the backend of the larger part.
func mergeSmall(content string, segs []Segment, s types.ChunkingStrategy, tok tokenizer.Tokenizer) []Segment {
	if s.MinSectionTokens <= 0 || len(segs) < 2 {
		return segs
	}
	small := func(seg Segment) bool { return tok.Count(seg.Text) < s.MinSectionTokens }
	join := func(a, b Segment) (Segment, bool) {
		end := max(a.End, b.End)
		text := content[a.Start:end]
		if tok.Count(text) > s.MaxTokens {
			return Segment{}, false
		}
		backend := a.Backend
		if tok.Count(b.Text) > tok.Count(a.Text) {
			backend = b.Backend
		}
		return Segment{Text: text, Start: a.Start, End: end, Backend: backend}, true
	}

	out := make([]Segment, 0, len(segs))
	for i := 0; i < len(segs); i++ {
		cur := segs[i]
		for i+1 < len(segs) && (small(cur) || small(segs[i+1])) {
			joined, ok := join(cur, segs[i+1])
			if !ok {
				break
			}
			cur = joined
			i++
		}
		if n := len(out); n > 0 && small(cur) {
			if joined, ok := join(out[n-1], cur); ok {
				out[n-1] = joined
				continue
			}
		}
		out = append(out, cur)
	}
	return out
}
