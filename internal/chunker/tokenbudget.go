package chunker

import (
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/dshills/docchunk/internal/tokenizer"
	"github.com/dshills/docchunk/pkg/types"
)

// ErrSegmenterFailed wraps errors returned by a segmentation engine
var ErrSegmenterFailed = errors.New("segmenter failed")

// Segmentation is the output of a Segmenter. Offsets, when present, holds
// one [start, end) byte range per chunk.
type Segmentation struct {
	Chunks  []string
	Offsets [][2]int
}

// Segmenter is a token-aware text splitter
type Segmenter interface {
	Segment(text string, size, overlap int) (Segmentation, error)
}

type splitterKey struct {
	size, overlap int
}

// LangchainSegmenter splits text with langchaingo's recursive character
// splitter, measuring length in tokens. Splitters are cached per
// (size, overlap).
type LangchainSegmenter struct {
	tok   tokenizer.Tokenizer
	cache *lru.Cache[splitterKey, textsplitter.RecursiveCharacter]
}

// NewLangchainSegmenter creates a segmenter counting tokens with tok.
// A cacheSize <= 0 disables splitter caching.
func NewLangchainSegmenter(tok tokenizer.Tokenizer, cacheSize int) *LangchainSegmenter {
	s := &LangchainSegmenter{tok: tok}
	if cacheSize > 0 {
		if c, err := lru.New[splitterKey, textsplitter.RecursiveCharacter](cacheSize); err == nil {
			s.cache = c
		}
	}
	return s
}

func (s *LangchainSegmenter) splitter(size, overlap int) textsplitter.RecursiveCharacter {
	key := splitterKey{size: size, overlap: overlap}
	if s.cache != nil {
		if sp, ok := s.cache.Get(key); ok {
			return sp
		}
	}
	sp := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithLenFunc(s.tok.Count),
	)
	if s.cache != nil {
		s.cache.Add(key, sp)
	}
	return sp
}

// Segment splits text into chunks of at most size tokens where the text
// allows it. Offsets are not reported.
func (s *LangchainSegmenter) Segment(text string, size, overlap int) (Segmentation, error) {
	chunks, err := s.splitter(size, overlap).SplitText(text)
	if err != nil {
		return Segmentation{}, fmt.Errorf("%w: %w", ErrSegmenterFailed, err)
	}
	return Segmentation{Chunks: chunks}, nil
}

// tokenBudgetBackend adapts a Segmenter to verbatim, offset-exact segments
type tokenBudgetBackend struct {
	seg Segmenter
}

// Segment defers when the engine is missing, fails, or returns chunks that
// cannot be mapped back onto content
func (b *tokenBudgetBackend) Segment(content string, s types.ChunkingStrategy) (Result, error) {
	if b == nil || b.seg == nil {
		return deferTo(FallbackSegmenterUnavailable), nil
	}
	out, err := b.seg.Segment(content, s.MaxTokens, s.TokenOverlap)
	if err != nil {
		return deferTo(FallbackSegmenterFailed), err
	}

	var segs []Segment
	if len(out.Offsets) > 0 {
		segs = fromOffsets(content, out)
	} else {
		segs = locate(content, out.Chunks)
	}
	if len(segs) == 0 {
		return deferTo(FallbackSegmenterIncompatible), nil
	}
	return Result{Segments: segs}, nil
}

// fromOffsets trusts engine offsets only when they address the chunk text
func fromOffsets(content string, out Segmentation) []Segment {
	if len(out.Offsets) != len(out.Chunks) {
		return nil
	}
	segs := make([]Segment, 0, len(out.Chunks))
	for i, off := range out.Offsets {
		if off[0] < 0 || off[1] > len(content) || off[0] > off[1] || content[off[0]:off[1]] != out.Chunks[i] {
			return nil
		}
		if seg, ok := newSegment(content, off[0], off[1], types.BackendTokenBudget); ok {
			segs = append(segs, seg)
		}
	}
	return segs
}

// locate finds each chunk in content in order. Chunks may overlap their
// predecessor but never start before it. Any chunk that cannot be found
// makes the whole segmentation unusable.
func locate(content string, chunks []string) []Segment {
	segs := make([]Segment, 0, len(chunks))
	cursor := 0
	for _, c := range chunks {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		i := strings.Index(content[cursor:], c)
		if i < 0 {
			return nil
		}
		start := cursor + i
		segs = append(segs, Segment{Text: c, Start: start, End: start + len(c), Backend: types.BackendTokenBudget})
		cursor = start + 1
		if cursor > len(content) {
			cursor = len(content)
		}
	}
	return segs
}
