package modal

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dshills/docchunk/pkg/types"
)

const (
	// DefaultPunctuationDensity is the share of code punctuation above which
	// text is treated as code
	DefaultPunctuationDensity = 0.08

	// DefaultMinDensityChars is the shortest text the density rule applies to
	DefaultMinDensityChars = 20

	// DefaultMinCodeKeywords is the number of distinct code keywords that
	// marks text as code
	DefaultMinCodeKeywords = 2
)

var (
	tableRow     = regexp.MustCompile(`\n[ \t]*\|[^\n]*\|`)
	fenceMarker  = regexp.MustCompile("(?m)^[ \t]*(```|~~~)")
	bulletLine   = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+•]|\d+[.)])[ \t]+\S`)
	headingLine  = regexp.MustCompile(`(?m)^ {0,3}#{1,6}[ \t]+\S`)
	codeKeywords = regexp.MustCompile(`(?m)^[ \t]*(def|class|import|from|return|function|func|const|let|var|public|private|package|struct|fn|impl|#include|#define)\b`)
)

const codePunctuation = "{}()[];=<>"

// Classifier labels the content shape of text.
// Priority: table > code > list > structured data > prose.
type Classifier struct {
	PunctuationDensity float64
	MinDensityChars    int
	MinCodeKeywords    int
}

// New creates a Classifier with default thresholds
func New() *Classifier {
	return &Classifier{
		PunctuationDensity: DefaultPunctuationDensity,
		MinDensityChars:    DefaultMinDensityChars,
		MinCodeKeywords:    DefaultMinCodeKeywords,
	}
}

// Classify returns the modal hint for text
func (c *Classifier) Classify(text string) types.ModalHint {
	switch {
	case c.IsTable(text):
		return types.ModalTable
	case c.IsCode(text):
		return types.ModalCode
	case c.IsList(text):
		return types.ModalList
	case c.IsStructuredData(text):
		return types.ModalStructuredData
	default:
		return types.ModalProse
	}
}

// IsTable reports a pipe-delimited row following a newline
func (c *Classifier) IsTable(text string) bool {
	return tableRow.MatchString(text)
}

// IsCode reports fenced code, enough distinct code keywords at line starts,
// or a high density of code punctuation
func (c *Classifier) IsCode(text string) bool {
	if fenceMarker.MatchString(text) {
		return true
	}
	if c.countKeywords(text) >= c.MinCodeKeywords {
		return true
	}
	return c.punctuationDensity(text) > c.PunctuationDensity
}

func (c *Classifier) countKeywords(text string) int {
	seen := make(map[string]struct{})
	for _, m := range codeKeywords.FindAllStringSubmatch(text, -1) {
		seen[m[1]] = struct{}{}
	}
	return len(seen)
}

func (c *Classifier) punctuationDensity(text string) float64 {
	n := utf8.RuneCountInString(text)
	if n < c.MinDensityChars {
		return 0
	}
	punct := 0
	for _, r := range text {
		if strings.ContainsRune(codePunctuation, r) {
			punct++
		}
	}
	return float64(punct) / float64(n)
}

// IsList reports at least two bullet lines, or text that opens with one
func (c *Classifier) IsList(text string) bool {
	locs := bulletLine.FindAllStringIndex(text, 2)
	if len(locs) >= 2 {
		return true
	}
	return len(locs) == 1 && strings.TrimSpace(text[:locs[0][0]]) == ""
}

// IsStructuredData reports text that opens like JSON
func (c *Classifier) IsStructuredData(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// HasHeading reports at least one heading line
func (c *Classifier) HasHeading(text string) bool {
	return headingLine.MatchString(text)
}

// Flags reports every content shape present in text, independent of the
// priority order used by Classify
func (c *Classifier) Flags(text string) types.ContentFlags {
	return types.ContentFlags{
		HasCode:           c.IsCode(text),
		HasTable:          c.IsTable(text),
		HasList:           bulletLine.MatchString(text),
		HasStructuredData: c.IsStructuredData(text),
		HasHeading:        c.HasHeading(text),
	}
}
