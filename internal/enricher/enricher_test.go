package enricher

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docchunk/internal/tokenizer"
	"github.com/dshills/docchunk/pkg/types"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-5[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestChunkID(t *testing.T) {
	id := ChunkID("docs/Guide.md", 0)
	assert.Regexp(t, uuidPattern, id)

	assert.Equal(t, id, ChunkID("docs/Guide.md", 0), "deterministic")
	assert.Equal(t, id, ChunkID("DOCS/guide.md", 0), "case-insensitive")
	assert.Equal(t, id, ChunkID(`docs\Guide.md`, 0), "separator-insensitive")
	assert.Equal(t, id, ChunkID("docs/Ｇuide.md", 0), "NFKC-normalized")
	assert.NotEqual(t, id, ChunkID("docs/Guide.md", 1))
	assert.NotEqual(t, id, ChunkID("docs/Other.md", 0))
}

func TestNormalizeFilename(t *testing.T) {
	assert.Equal(t, "a/b/c.md", NormalizeFilename(` A\B/C.MD `))
	assert.Equal(t, "file.txt", NormalizeFilename("ﬁle.txt"))
}

func TestContentHash(t *testing.T) {
	h := ContentHash("hello world")
	assert.Len(t, h, 16)
	assert.Equal(t, "b94d27b9934d3e08", h)
	assert.NotEqual(t, h, ContentHash("hello world!"))
}

func TestSparseFeatures(t *testing.T) {
	text := "Cache the tokens. The cache keeps tokens; cache hits are cheap. Go is ok."
	features := SparseFeatures(text, 3)

	require.Len(t, features, 3)
	assert.Equal(t, types.SparseFeature{Term: "cache", Count: 3, Weight: 3.0 / 8.0}, features[0])
	assert.Equal(t, "tokens", features[1].Term)
	assert.Equal(t, 2, features[1].Count)
	// cheap, hits, keeps tie at 1; alphabetical order wins
	assert.Equal(t, "cheap", features[2].Term)

	for _, f := range features {
		assert.GreaterOrEqual(t, len([]rune(f.Term)), MinTermRunes)
	}
}

func TestSparseFeatures_SkipsStopwords(t *testing.T) {
	features := SparseFeatures("The parser and the lexer share their state with each worker.", 10)
	terms := make([]string, 0, len(features))
	for _, f := range features {
		terms = append(terms, f.Term)
	}
	assert.ElementsMatch(t, []string{"parser", "lexer", "share", "state", "worker"}, terms)
}

func TestSparseFeatures_Empty(t *testing.T) {
	assert.Empty(t, SparseFeatures("a b c -- !!", 5))
	assert.NotNil(t, SparseFeatures("", 5))
	assert.Empty(t, SparseFeatures("plenty of words here", 0))
}

func TestSearchKeywords(t *testing.T) {
	sparse := []types.SparseFeature{{Term: "install"}, {Term: "linux"}, {Term: "packages"}}
	got := SearchKeywords([]string{"Guide", "Install"}, "Install", sparse, 2)
	assert.Equal(t, []string{"Guide", "Install", "linux"}, got)
}

func TestRoute(t *testing.T) {
	ct, hints := Route(types.ModalProse, types.ContentFlags{HasCode: true})
	assert.Equal(t, "text", ct)
	assert.Equal(t, []string{"documentation", "code_snippets"}, hints)

	ct, hints = Route(types.ModalCode, types.ContentFlags{HasCode: true})
	assert.Equal(t, "code", ct)
	assert.Equal(t, []string{"code_snippets"}, hints)

	ct, _ = Route(types.ModalHint("bogus"), types.ContentFlags{})
	assert.Equal(t, "text", ct)
}

func TestEnrichAll(t *testing.T) {
	e := New(tokenizer.NewWord(), DefaultConfig())
	raws := []types.RawChunk{
		{
			Text:        "Install the package with make install.",
			SectionPath: []string{"Guide", "Install"},
			Heading:     "Install",
			StartChar:   10,
			EndChar:     48,
			ChunkIndex:  0,
			Backend:     types.BackendStructural,
		},
		{
			Text:        "| a | b |\n| 1 | 2 |",
			SectionPath: []string{"Guide", "Install"},
			Heading:     "Install",
			StartChar:   50,
			EndChar:     69,
			ChunkIndex:  1,
			Backend:     types.BackendStructural,
		},
	}

	out := e.EnrichAll(raws, "docs/guide.md")
	require.Len(t, out, 2)

	first := out[0]
	assert.Equal(t, raws[0], first.RawChunk)
	assert.Equal(t, ChunkID("docs/guide.md", 0), first.ChunkID)
	assert.Equal(t, "docs/guide.md", first.SourceFile)
	assert.Equal(t, len([]rune(raws[0].Text)), first.CharCount)
	assert.Equal(t, tokenizer.NewWord().Count(raws[0].Text), first.TokenCount)
	assert.Equal(t, types.ModalProse, first.ModalHint)
	assert.Equal(t, "text", first.ContentType)
	assert.Equal(t, []string{"Guide", "Install", "make", "package"}, first.SearchKeywords)
	assert.Len(t, first.ContentHash, 16)

	second := out[1]
	assert.Equal(t, types.ModalTable, second.ModalHint)
	assert.True(t, second.ContentFlags.HasTable)
	assert.Equal(t, "table", second.ContentType)
	assert.NotEqual(t, first.ChunkID, second.ChunkID)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{SparseTopN: -1}.Validate())
}
