package structure

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := New()
	assert.NotNil(t, a)
}

func TestAnalyze_HeadingSplit(t *testing.T) {
	doc := "# A\ntext1\n\n# B\ntext2"
	blocks := New().Analyze(doc)

	require.Len(t, blocks, 2)
	assert.Equal(t, []string{"A"}, blocks[0].SectionPath)
	assert.Equal(t, "# A\ntext1", blocks[0].Content)
	assert.Equal(t, "A", blocks[0].Heading)
	assert.Equal(t, 1, blocks[0].Level)
	assert.Equal(t, []string{"B"}, blocks[1].SectionPath)
	assert.Equal(t, "# B\ntext2", blocks[1].Content)
	assert.Equal(t, 0, blocks[0].StartChar)
	assert.Equal(t, 11, blocks[1].StartChar)
}

func TestAnalyze_NoHeadings(t *testing.T) {
	doc := "  Just a short paragraph of text.  \n"
	blocks := New().Analyze(doc)

	require.Len(t, blocks, 1)
	assert.Empty(t, blocks[0].SectionPath)
	assert.NotNil(t, blocks[0].SectionPath)
	assert.Equal(t, "Just a short paragraph of text.", blocks[0].Content)
	assert.Equal(t, 2, blocks[0].StartChar)
	assert.Equal(t, 2+len("Just a short paragraph of text."), blocks[0].EndChar)
}

func TestAnalyze_EmptyDocument(t *testing.T) {
	a := New()
	assert.Empty(t, a.Analyze(""))
	assert.Empty(t, a.Analyze(" \n\t\n"))
}

func TestAnalyze_NestedSectionPath(t *testing.T) {
	doc := `Preamble text.

# Guide
Guide intro.

## Install
Run make install.

### Linux
Use apt.

## Usage
Call the API.

# Reference
Details.`

	blocks := New().Analyze(doc)
	require.Len(t, blocks, 6)

	assert.Empty(t, blocks[0].SectionPath)
	assert.Equal(t, "Preamble text.", blocks[0].Content)
	assert.Equal(t, []string{"Guide"}, blocks[1].SectionPath)
	assert.Equal(t, []string{"Guide", "Install"}, blocks[2].SectionPath)
	assert.Equal(t, []string{"Guide", "Install", "Linux"}, blocks[3].SectionPath)
	assert.Equal(t, []string{"Guide", "Usage"}, blocks[4].SectionPath)
	assert.Equal(t, []string{"Reference"}, blocks[5].SectionPath)
}

func TestAnalyze_ConsecutiveHeadingsProduceNoBlock(t *testing.T) {
	doc := "# Title\n## Subtitle\nBody text."
	blocks := New().Analyze(doc)

	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"Title", "Subtitle"}, blocks[0].SectionPath)
	assert.Equal(t, "## Subtitle\nBody text.", blocks[0].Content)
	assert.Equal(t, "Subtitle", blocks[0].Heading)
}

func TestAnalyze_HashInsideCodeFenceIsNotHeading(t *testing.T) {
	doc := "# Script\n```bash\n# not a heading\necho hi\n```\n"
	blocks := New().Analyze(doc)

	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"Script"}, blocks[0].SectionPath)
	assert.Contains(t, blocks[0].Content, "# not a heading")
}

func TestAnalyze_ClosingSequenceStripped(t *testing.T) {
	headings := New().Headings("## Setup ##\ntext\n# C#\nmore")
	require.Len(t, headings, 2)
	assert.Equal(t, "Setup", headings[0].Title)
	assert.Equal(t, 2, headings[0].Level)
	assert.Equal(t, 1, headings[0].Line)
	assert.Equal(t, "C#", headings[1].Title)
	assert.Equal(t, 3, headings[1].Line)
}

func TestAnalyze_OffsetsAreContiguousAndExact(t *testing.T) {
	doc := "Intro ☃ text.\n\n# Über\nGrüße aus Köln.\n\n## 漢字\n本文です。\n"
	blocks := New().Analyze(doc)
	require.NotEmpty(t, blocks)

	runes := []rune(doc)
	prevEnd := 0
	for _, b := range blocks {
		require.NoError(t, b.Validate())
		assert.GreaterOrEqual(t, b.StartChar, prevEnd, "blocks must not overlap")
		assert.LessOrEqual(t, b.EndChar, len(runes))
		assert.Equal(t, b.Content, string(runes[b.StartChar:b.EndChar]))
		assert.Equal(t, b.Content, doc[b.StartByte:b.EndByte])
		prevEnd = b.EndChar
	}
}

func TestAnalyze_BlocksReconstructTrimmedDocument(t *testing.T) {
	doc := "\n\n  Lead paragraph.\n\n# One\nfirst body\n\n# Two\nsecond body  \n\n"
	blocks := New().Analyze(doc)
	require.Len(t, blocks, 3)
	assert.Equal(t, "# One\nfirst body", blocks[1].Content)
	assert.Equal(t, "# Two\nsecond body", blocks[2].Content)

	trimmed := strings.TrimSpace(doc)
	offset := len(doc) - len(strings.TrimLeft(doc, " \n"))

	// Blocks are verbatim slices of the trimmed document, in order, and
	// only whitespace lies between them
	cursor := 0
	for _, b := range blocks {
		rel := b.StartByte - offset
		require.GreaterOrEqual(t, rel, cursor)
		assert.Empty(t, strings.TrimSpace(trimmed[cursor:rel]), "gap before block %q", b.Content)
		assert.Equal(t, b.Content, trimmed[rel:rel+len(b.Content)])
		cursor = rel + len(b.Content)
	}
	assert.Equal(t, len(trimmed), cursor)
	assert.Equal(t, utf8.RuneCountInString(doc[:blocks[2].EndByte]), blocks[2].EndChar)
}

func TestAnalyze_EmptyHeadingIsTheOnlyGap(t *testing.T) {
	doc := "# Guide\n\n## Install\nRun make install.\n\n## Usage\n\n## Reference\nSee the API."
	blocks := New().Analyze(doc)
	require.Len(t, blocks, 2)

	assert.Equal(t, "## Install\nRun make install.", blocks[0].Content)
	assert.Equal(t, []string{"Guide", "Install"}, blocks[0].SectionPath)
	assert.Equal(t, "## Reference\nSee the API.", blocks[1].Content)
	assert.Equal(t, []string{"Guide", "Reference"}, blocks[1].SectionPath)

	// the dropped gaps hold nothing but empty headings
	assert.Equal(t, "# Guide", strings.TrimSpace(doc[:blocks[0].StartByte]))
	assert.Equal(t, "## Usage", strings.TrimSpace(doc[blocks[0].EndByte:blocks[1].StartByte]))
}

func TestWhole(t *testing.T) {
	doc := "\n# comment\ndef f():\n    return 1\n"
	blocks := New().Whole(doc)

	require.Len(t, blocks, 1)
	assert.Empty(t, blocks[0].SectionPath)
	assert.Equal(t, strings.TrimSpace(doc), blocks[0].Content)
	assert.Equal(t, 1, blocks[0].StartChar)
	assert.Equal(t, utf8.RuneCountInString(doc)-1, blocks[0].EndChar)
	require.NoError(t, blocks[0].Validate())

	assert.Empty(t, New().Whole("  \n"))
}
