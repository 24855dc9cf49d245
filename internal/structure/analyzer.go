package structure

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dshills/docchunk/pkg/types"
)

// MaxHeadingLevel is the deepest heading level recognized
const MaxHeadingLevel = 6

var atxLine = regexp.MustCompile(`^ {0,3}#{1,6}(?:[ \t]|$)`)
var closingSequence = regexp.MustCompile(`[ \t]+#+[ \t]*$`)

// Heading is a heading line found in a document
type Heading struct {
	Level     int
	Title     string
	Line      int // 1-based line number
	LineStart int // byte offset of the first byte of the line
	LineEnd   int // byte offset just past the line, excluding the newline
}

// Analyzer splits documents into heading-delimited structural blocks
type Analyzer struct {
	md goldmark.Markdown
}

// New creates a new Analyzer instance
func New() *Analyzer {
	return &Analyzer{md: goldmark.New()}
}

// Headings returns the ATX heading lines of a document in order.
// Lines that only look like headings, such as comments inside fenced code,
// are not reported.
func (a *Analyzer) Headings(doc string) []Heading {
	src := []byte(doc)
	root := a.md.Parser().Parse(text.NewReader(src))

	var headings []Heading
	_ = gast.Walk(root, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		h, ok := n.(*gast.Heading)
		if !ok {
			return gast.WalkContinue, nil
		}
		lines := h.Lines()
		if lines.Len() == 0 {
			return gast.WalkSkipChildren, nil
		}
		seg := lines.At(0)
		lineStart := strings.LastIndexByte(doc[:seg.Start], '\n') + 1
		lineEnd := len(doc)
		if nl := strings.IndexByte(doc[seg.Start:], '\n'); nl >= 0 {
			lineEnd = seg.Start + nl
		}
		line := strings.TrimRight(doc[lineStart:lineEnd], "\r")
		if !atxLine.MatchString(line) {
			// setext heading or heading nested in a container
			return gast.WalkSkipChildren, nil
		}

		title := strings.TrimSpace(string(seg.Value(src)))
		title = strings.TrimSpace(closingSequence.ReplaceAllString(title, ""))
		headings = append(headings, Heading{
			Level:     h.Level,
			Title:     title,
			Line:      strings.Count(doc[:lineStart], "\n") + 1,
			LineStart: lineStart,
			LineEnd:   lineEnd,
		})
		return gast.WalkSkipChildren, nil
	})

	return headings
}

// Analyze splits a document into structural blocks. Each block after a
// heading starts with the heading line itself; a heading with no body of its
// own yields no block. A document without headings yields exactly one block with an empty
// section path; whitespace-only documents yield no blocks.
func (a *Analyzer) Analyze(doc string) []types.StructuralBlock {
	if strings.TrimSpace(doc) == "" {
		return nil
	}

	idx := types.NewCharIndex(doc)
	headings := a.Headings(doc)

	if len(headings) == 0 {
		if b, ok := newBlock(doc, idx, 0, len(doc), nil, nil); ok {
			return []types.StructuralBlock{b}
		}
		return nil
	}

	blocks := make([]types.StructuralBlock, 0, len(headings)+1)

	if b, ok := newBlock(doc, idx, 0, headings[0].LineStart, nil, nil); ok {
		blocks = append(blocks, b)
	}

	var stack []Heading
	for i := range headings {
		h := headings[i]
		for len(stack) > 0 && stack[len(stack)-1].Level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, h)

		end := len(doc)
		if i+1 < len(headings) {
			end = headings[i+1].LineStart
		}

		if strings.TrimSpace(doc[h.LineEnd:end]) == "" {
			continue
		}
		path := make([]string, len(stack))
		for j, s := range stack {
			path[j] = s.Title
		}
		if b, ok := newBlock(doc, idx, h.LineStart, end, &h, path); ok {
			blocks = append(blocks, b)
		}
	}

	return blocks
}

// Whole returns the document as a single block with an empty section path,
// ignoring headings. Whitespace-only documents yield no blocks.
func (a *Analyzer) Whole(doc string) []types.StructuralBlock {
	if b, ok := newBlock(doc, types.NewCharIndex(doc), 0, len(doc), nil, nil); ok {
		return []types.StructuralBlock{b}
	}
	return nil
}

// newBlock trims [start, end) and builds a block, reporting false when the
// region holds only whitespace
func newBlock(doc string, idx *types.CharIndex, start, end int, h *Heading, path []string) (types.StructuralBlock, bool) {
	region := doc[start:end]
	trimmedLeft := strings.TrimLeftFunc(region, unicode.IsSpace)
	content := strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
	if content == "" {
		return types.StructuralBlock{}, false
	}

	startByte := start + len(region) - len(trimmedLeft)
	endByte := startByte + len(content)

	if path == nil {
		path = []string{}
	}
	b := types.StructuralBlock{
		SectionPath: path,
		Content:     content,
		StartChar:   idx.Char(startByte),
		EndChar:     idx.Char(endByte),
		StartByte:   startByte,
		EndByte:     endByte,
	}
	if h != nil {
		b.Heading = h.Title
		b.Level = h.Level
	}
	return b, true
}
