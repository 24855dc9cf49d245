package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docchunk/internal/tokenizer"
	"github.com/dshills/docchunk/pkg/types"
)

func TestTokenBudget_Defers(t *testing.T) {
	content := "alpha beta gamma delta"
	s := strategy(10, 2, 0)

	t.Run("no segmenter", func(t *testing.T) {
		var b *tokenBudgetBackend
		r, err := b.Segment(content, s)
		require.NoError(t, err)
		assert.True(t, r.Deferred())
		assert.Equal(t, FallbackSegmenterUnavailable, r.Fallback)
	})

	t.Run("segmenter error", func(t *testing.T) {
		b := &tokenBudgetBackend{seg: &fakeSegmenter{err: errors.New("boom")}}
		r, err := b.Segment(content, s)
		assert.Error(t, err)
		assert.Equal(t, FallbackSegmenterFailed, r.Fallback)
	})

	t.Run("chunks not in source", func(t *testing.T) {
		b := &tokenBudgetBackend{seg: &fakeSegmenter{out: Segmentation{Chunks: []string{"alpha beta", "rewritten text"}}}}
		r, err := b.Segment(content, s)
		require.NoError(t, err)
		assert.Equal(t, FallbackSegmenterIncompatible, r.Fallback)
	})

	t.Run("no chunks", func(t *testing.T) {
		b := &tokenBudgetBackend{seg: &fakeSegmenter{}}
		r, _ := b.Segment(content, s)
		assert.Equal(t, FallbackSegmenterIncompatible, r.Fallback)
	})

	t.Run("offsets that do not address the chunk", func(t *testing.T) {
		b := &tokenBudgetBackend{seg: &fakeSegmenter{out: Segmentation{
			Chunks:  []string{"alpha beta"},
			Offsets: [][2]int{{6, 16}},
		}}}
		r, _ := b.Segment(content, s)
		assert.Equal(t, FallbackSegmenterIncompatible, r.Fallback)
	})
}

func TestTokenBudget_LocatesOverlappingChunks(t *testing.T) {
	content := "alpha beta gamma delta"
	b := &tokenBudgetBackend{seg: &fakeSegmenter{out: Segmentation{
		Chunks: []string{"alpha beta gamma", " gamma delta "},
	}}}

	r, err := b.Segment(content, strategy(10, 2, 0))
	require.NoError(t, err)
	require.False(t, r.Deferred())
	requireVerbatim(t, content, r.Segments)
	assert.Equal(t, []string{"alpha beta gamma", "gamma delta"}, texts(r.Segments))
	assert.Equal(t, 11, r.Segments[1].Start)
	for _, seg := range r.Segments {
		assert.Equal(t, types.BackendTokenBudget, seg.Backend)
	}
}

func TestTokenBudget_UsesOffsets(t *testing.T) {
	content := "same text. same text."
	b := &tokenBudgetBackend{seg: &fakeSegmenter{out: Segmentation{
		Chunks:  []string{"same text.", "same text."},
		Offsets: [][2]int{{0, 10}, {11, 21}},
	}}}

	r, err := b.Segment(content, strategy(10, 0, 0))
	require.NoError(t, err)
	require.Len(t, r.Segments, 2)
	assert.Equal(t, 11, r.Segments[1].Start)
	requireVerbatim(t, content, r.Segments)
}

func TestLangchainSegmenter(t *testing.T) {
	tok := tokenizer.NewWord()
	seg := NewLangchainSegmenter(tok, 4)

	paragraphs := []string{
		"Alpha beta gamma delta.",
		"Epsilon zeta eta theta.",
		"Iota kappa lambda mu.",
		"Nu xi omicron pi.",
	}
	text := strings.Join(paragraphs, "\n\n")

	out, err := seg.Segment(text, 8, 0)
	require.NoError(t, err)
	require.Greater(t, len(out.Chunks), 1)
	for _, c := range out.Chunks {
		assert.Contains(t, text, c)
	}

	_, err = seg.Segment(text, 8, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, seg.cache.Len(), "splitter reused for the same size and overlap")

	_, err = seg.Segment(text, 16, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, seg.cache.Len())
}

func TestLangchainSegmenter_NoCache(t *testing.T) {
	seg := NewLangchainSegmenter(tokenizer.NewWord(), 0)
	assert.Nil(t, seg.cache)

	out, err := seg.Segment("one two three", 8, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"one two three"}, out.Chunks)
}
