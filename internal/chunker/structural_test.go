package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docchunk/internal/tokenizer"
	"github.com/dshills/docchunk/pkg/types"
)

func TestSplitUnits(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		atomic  []bool
	}{
		{
			name:    "sentences, paragraphs and fences",
			content: "First line\ncontinues here.\n\nSecond para\n```go\nx := 1\n\ny := 2\n```\nTail.",
			want:    []string{"First line\ncontinues here.", "Second para", "```go\nx := 1\n\ny := 2\n```", "Tail."},
			atomic:  []bool{false, false, true, false},
		},
		{
			name:    "unclosed fence runs to the end",
			content: "Intro.\n~~~\ncode line\n\nmore",
			want:    []string{"Intro.", "~~~\ncode line\n\nmore"},
			atomic:  []bool{false, true},
		},
		{
			name:    "indented lines start at text",
			content: "   indented start\n  and end!   ",
			want:    []string{"indented start\n  and end!"},
			atomic:  []bool{false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units := splitUnits(tt.content)
			require.Len(t, units, len(tt.want))
			for i, u := range units {
				assert.Equal(t, tt.want[i], tt.content[u.start:u.end])
				assert.Equal(t, tt.atomic[i], u.atomic)
			}
		})
	}
}

func TestStructural_PacksWithinBudget(t *testing.T) {
	tok := tokenizer.NewWord()
	b := newStructuralBackend(tok)
	content := "One two three four.\nFive six seven eight.\nNine ten eleven twelve."

	r := b.Segment(content, strategy(10, 0, 0))
	assert.Equal(t, FallbackNone, r.Fallback)
	assert.Equal(t, []string{
		"One two three four.\nFive six seven eight.",
		"Nine ten eleven twelve.",
	}, texts(r.Segments))
	requireVerbatim(t, content, r.Segments)
	for _, s := range r.Segments {
		assert.LessOrEqual(t, tok.Count(s.Text), 10)
		assert.Equal(t, types.BackendStructural, s.Backend)
	}
}

func TestStructural_OverlapSeed(t *testing.T) {
	b := newStructuralBackend(tokenizer.NewWord())
	content := "One two three four.\nFive six seven eight.\nNine ten eleven twelve.\nThirteen fourteen fifteen sixteen."

	r := b.Segment(content, strategy(10, 3, 0))
	require.Equal(t, []string{
		"One two three four.\nFive six seven eight.",
		"seven eight.\nNine ten eleven twelve.",
		"eleven twelve.\nThirteen fourteen fifteen sixteen.",
	}, texts(r.Segments))
	requireVerbatim(t, content, r.Segments)

	// seeds overlap the previous chunk
	assert.Less(t, r.Segments[1].Start, r.Segments[0].End)
	assert.Less(t, r.Segments[2].Start, r.Segments[1].End)
}

func TestStructural_SplitsLongWords(t *testing.T) {
	b := newStructuralBackend(runeTokenizer{})
	content := "abcdefghij"

	r := b.Segment(content, strategy(4, 0, 0))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, texts(r.Segments))
	requireVerbatim(t, content, r.Segments)
}

func TestSplitRunes_ContiguousPieces(t *testing.T) {
	b := newStructuralBackend(runeTokenizer{})
	content := "xx " + strings.Repeat("äöü", 7) + " yy"
	start, end := 3, len(content)-3

	pieces := b.splitRunes(content, start, end, 4)
	require.Len(t, pieces, 6)
	assert.Equal(t, start, pieces[0].start)
	assert.Equal(t, end, pieces[len(pieces)-1].end)
	for i, p := range pieces {
		if i > 0 {
			assert.Equal(t, pieces[i-1].end, p.start)
		}
		n := utf8.RuneCountInString(content[p.start:p.end])
		if i < len(pieces)-1 {
			assert.Equal(t, 4, n)
		} else {
			assert.Equal(t, 1, n)
		}
	}
}

func TestStructural_SplitsLongSentenceOnWords(t *testing.T) {
	tok := tokenizer.NewWord()
	b := newStructuralBackend(tok)
	content := strings.TrimSpace(strings.Repeat("lorem ipsum dolor ", 10))

	r := b.Segment(content, strategy(7, 0, 0))
	require.NotEmpty(t, r.Segments)
	requireVerbatim(t, content, r.Segments)
	for _, s := range r.Segments {
		assert.LessOrEqual(t, tok.Count(s.Text), 7)
		assert.False(t, strings.HasPrefix(s.Text, " "))
	}
}

func TestStructural_AtomicFenceMayExceedBudget(t *testing.T) {
	tok := tokenizer.NewWord()
	b := newStructuralBackend(tok)
	fence := "```\na b c d e f g h\n```"
	content := "Intro.\n" + fence + "\nEnd."

	r := b.Segment(content, strategy(5, 0, 0))
	assert.Equal(t, []string{"Intro.", fence, "End."}, texts(r.Segments))
	for _, s := range r.Segments {
		if s.Text != fence {
			assert.LessOrEqual(t, tok.Count(s.Text), 5)
		}
	}
}

func TestStructural_MultiByteOffsets(t *testing.T) {
	b := newStructuralBackend(tokenizer.NewWord())
	content := "Überblick über Größe.\n日本語の文。\nEnde."

	r := b.Segment(content, strategy(3, 0, 0))
	require.NotEmpty(t, r.Segments)
	requireVerbatim(t, content, r.Segments)
}

func TestStructural_Empty(t *testing.T) {
	b := newStructuralBackend(tokenizer.NewWord())
	r := b.Segment("  \n\n ", strategy(10, 0, 0))
	assert.Empty(t, r.Segments)
	assert.False(t, r.Deferred())
}

func TestMergeSmall(t *testing.T) {
	tok := tokenizer.NewWord()
	content := "package demo\n\nfunc A() { return }\n\nfunc B() { return }"
	segs := []Segment{
		{Text: "package demo", Start: 0, End: 12, Backend: types.BackendStructural},
		{Text: "func A() { return }", Start: 14, End: 33, Backend: types.BackendSyntaxTree},
		{Text: "func B() { return }", Start: 35, End: 54, Backend: types.BackendSyntaxTree},
	}
	requireVerbatim(t, content, segs)

	t.Run("small header joins the next declaration", func(t *testing.T) {
		got := mergeSmall(content, append([]Segment(nil), segs...), strategy(12, 0, 4), tok)
		require.Len(t, got, 2)
		assert.Equal(t, "package demo\n\nfunc A() { return }", got[0].Text)
		assert.Equal(t, types.BackendSyntaxTree, got[0].Backend)
		requireVerbatim(t, content, got)
	})

	t.Run("merge never exceeds the budget", func(t *testing.T) {
		got := mergeSmall(content, append([]Segment(nil), segs...), strategy(8, 0, 4), tok)
		assert.Len(t, got, 3)
	})

	t.Run("disabled", func(t *testing.T) {
		got := mergeSmall(content, append([]Segment(nil), segs...), strategy(100, 0, 0), tok)
		assert.Len(t, got, 3)
	})

	t.Run("small tail joins the previous segment", func(t *testing.T) {
		tail := "A long enough first part.\nok"
		in := []Segment{
			{Text: "A long enough first part.", Start: 0, End: 25, Backend: types.BackendStructural},
			{Text: "ok", Start: 26, End: 28, Backend: types.BackendStructural},
		}
		got := mergeSmall(tail, in, strategy(20, 0, 3), tok)
		require.Len(t, got, 1)
		assert.Equal(t, tail, got[0].Text)
	})
}
