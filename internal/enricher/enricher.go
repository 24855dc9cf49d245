package enricher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/dshills/docchunk/internal/modal"
	"github.com/dshills/docchunk/internal/tokenizer"
	"github.com/dshills/docchunk/pkg/types"
)

const (
	DefaultSparseTopN  = 10
	DefaultKeywordTopN = 5

	// contentHashLen is the number of hex characters kept from the SHA-256
	contentHashLen = 16
)

// chunkNamespace scopes chunk ids to this engine
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/dshills/docchunk/chunk"))

var lower = cases.Lower(language.Und)

// Config controls lexical feature extraction
type Config struct {
	SparseTopN  int `toml:"sparse_top_n" json:"sparse_top_n"`
	KeywordTopN int `toml:"keyword_top_n" json:"keyword_top_n"`
}

// DefaultConfig returns the default enrichment configuration
func DefaultConfig() Config {
	return Config{
		SparseTopN:  DefaultSparseTopN,
		KeywordTopN: DefaultKeywordTopN,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.SparseTopN < 0 || c.KeywordTopN < 0 {
		return fmt.Errorf("enrichment limits must be non-negative: sparse_top_n=%d keyword_top_n=%d",
			c.SparseTopN, c.KeywordTopN)
	}
	return nil
}

// Enricher derives metadata for raw chunks
type Enricher struct {
	tok        tokenizer.Tokenizer
	classifier *modal.Classifier
	cfg        Config
}

// New creates an Enricher counting tokens with tok
func New(tok tokenizer.Tokenizer, cfg Config) *Enricher {
	return &Enricher{
		tok:        tok,
		classifier: modal.New(),
		cfg:        cfg,
	}
}

// EnrichAll enriches raw chunks of one document, preserving order
func (e *Enricher) EnrichAll(raws []types.RawChunk, filename string) []types.EnrichedChunk {
	out := make([]types.EnrichedChunk, 0, len(raws))
	normalized := NormalizeFilename(filename)
	for _, raw := range raws {
		out = append(out, e.enrich(raw, filename, normalized))
	}
	return out
}

// Enrich derives metadata for a single raw chunk
func (e *Enricher) Enrich(raw types.RawChunk, filename string) types.EnrichedChunk {
	return e.enrich(raw, filename, NormalizeFilename(filename))
}

func (e *Enricher) enrich(raw types.RawChunk, filename, normalized string) types.EnrichedChunk {
	hint := e.classifier.Classify(raw.Text)
	flags := e.classifier.Flags(raw.Text)
	sparse := SparseFeatures(raw.Text, e.cfg.SparseTopN)
	contentType, hints := Route(hint, flags)

	return types.EnrichedChunk{
		RawChunk:        raw,
		ChunkID:         chunkIDFor(normalized, raw.ChunkIndex),
		SourceFile:      filename,
		TokenCount:      e.tok.Count(raw.Text),
		CharCount:       utf8.RuneCountInString(raw.Text),
		ContentHash:     ContentHash(raw.Text),
		SparseFeatures:  sparse,
		ModalHint:       hint,
		ContentFlags:    flags,
		ContentType:     contentType,
		CollectionHints: hints,
		SearchKeywords:  SearchKeywords(raw.SectionPath, raw.Heading, sparse, e.cfg.KeywordTopN),
	}
}

// NormalizeFilename applies NFKC, lower-cases and converts path separators
// to forward slashes
func NormalizeFilename(filename string) string {
	name := norm.NFKC.String(strings.TrimSpace(filename))
	name = lower.String(name)
	name = strings.ReplaceAll(filepath.ToSlash(name), `\`, "/")
	return name
}

// ChunkID returns the deterministic id of the chunk at index in filename
func ChunkID(filename string, index int) string {
	return chunkIDFor(NormalizeFilename(filename), index)
}

func chunkIDFor(normalized string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s#%d", normalized, index))).String()
}

// ContentHash returns a short hex digest of text for deduplication
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:contentHashLen]
}

// SearchKeywords joins section titles, the heading and the top sparse
// terms, dropping case-insensitive duplicates while keeping first-seen order
func SearchKeywords(sectionPath []string, heading string, sparse []types.SparseFeature, topN int) []string {
	seen := make(map[string]struct{})
	keywords := make([]string, 0, len(sectionPath)+1+topN)
	add := func(k string) {
		k = strings.TrimSpace(k)
		if k == "" {
			return
		}
		key := lower.String(k)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		keywords = append(keywords, k)
	}

	for _, title := range sectionPath {
		add(title)
	}
	add(heading)
	for i, f := range sparse {
		if i >= topN {
			break
		}
		add(f.Term)
	}
	return keywords
}
