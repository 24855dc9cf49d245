package chunker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/docchunk/pkg/types"
)

// runeTokenizer counts every rune as one token
type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	ids := make([]int, 0, len(text))
	for _, r := range text {
		ids = append(ids, int(r))
	}
	return ids
}

func (runeTokenizer) Decode(ids []int) string {
	rs := make([]rune, len(ids))
	for i, id := range ids {
		rs[i] = rune(id)
	}
	return string(rs)
}

func (runeTokenizer) Count(text string) int { return len([]rune(text)) }
func (runeTokenizer) Name() string          { return "rune" }

// fakeSegmenter returns a canned segmentation
type fakeSegmenter struct {
	out   Segmentation
	err   error
	calls int
}

func (f *fakeSegmenter) Segment(string, int, int) (Segmentation, error) {
	f.calls++
	return f.out, f.err
}

func strategy(maxTokens, overlap, minSection int) types.ChunkingStrategy {
	return types.ChunkingStrategy{
		Name:             "test",
		MaxTokens:        maxTokens,
		TokenOverlap:     overlap,
		MinSectionTokens: minSection,
	}
}

func texts(segs []Segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Text
	}
	return out
}

// requireVerbatim checks that every segment addresses its own text
func requireVerbatim(t *testing.T, content string, segs []Segment) {
	t.Helper()
	for _, s := range segs {
		require.True(t, s.Start >= 0 && s.Start < s.End && s.End <= len(content), "bad span [%d, %d)", s.Start, s.End)
		require.Equal(t, content[s.Start:s.End], s.Text)
	}
}
