package chunker

import (
	"context"
	"errors"
	"strings"

	"github.com/dshills/docchunk/internal/parser"
	"github.com/dshills/docchunk/internal/tokenizer"
	"github.com/dshills/docchunk/pkg/types"
)

// syntaxTreeBackend chunks code at declaration boundaries
type syntaxTreeBackend struct {
	grammars   *parser.Registry
	tok        tokenizer.Tokenizer
	tokens     *tokenBudgetBackend
	structural *structuralBackend
}

// codeRegion is a parseable span of block content: a fenced code body or,
// when the block has no fences, the whole block
type codeRegion struct {
	start, end int
}

// Segment parses content as lang. Declarations become chunks; oversized
// declarations are split by the token-budget or structural backend, and the
// text between declarations is chunked structurally.
func (b *syntaxTreeBackend) Segment(ctx context.Context, content, lang string, s types.ChunkingStrategy) (Result, error) {
	if b == nil || !b.grammars.Supports(lang) {
		return deferTo(FallbackGrammarUnavailable), nil
	}
	g, err := b.grammars.Get(lang)
	if err != nil {
		return deferTo(FallbackGrammarUnavailable), err
	}

	var decls [][2]int
	var parseErr error
	for _, r := range fencedRegions(content) {
		tree, err := g.Parse(ctx, []byte(content[r.start:r.end]))
		if err != nil {
			parseErr = errors.Join(parseErr, err)
			continue
		}
		for _, n := range tree.Declarations(g.IsDeclaration) {
			decls = append(decls, [2]int{r.start + n.StartByte, r.start + n.EndByte})
		}
	}
	if len(decls) == 0 {
		if parseErr != nil {
			return deferTo(FallbackParseFailed), parseErr
		}
		return deferTo(FallbackNoDeclarations), nil
	}

	var segs []Segment
	cursor := 0
	for _, d := range decls {
		if d[0] < cursor {
			continue
		}
		segs = append(segs, b.gap(content, cursor, d[0], s)...)
		segs = append(segs, b.declaration(content, d[0], d[1], s)...)
		cursor = d[1]
	}
	segs = append(segs, b.gap(content, cursor, len(content), s)...)
	return Result{Segments: segs}, nil
}

func (b *syntaxTreeBackend) declaration(content string, start, end int, s types.ChunkingStrategy) []Segment {
	seg, ok := newSegment(content, start, end, types.BackendSyntaxTree)
	if !ok {
		return nil
	}
	if b.tok.Count(seg.Text) <= s.MaxTokens {
		return []Segment{seg}
	}
	if r, err := b.tokens.Segment(seg.Text, s); err == nil && !r.Deferred() {
		return shift(r.Segments, seg.Start)
	}
	return shift(b.structural.Segment(seg.Text, s).Segments, seg.Start)
}

// gap chunks the text between declarations, leaving out the fence marker
// lines around fenced code
func (b *syntaxTreeBackend) gap(content string, start, end int, s types.ChunkingStrategy) []Segment {
	start, end = trimFenceLines(content, start, end)
	if start >= end {
		return nil
	}
	return shift(b.structural.Segment(content[start:end], s).Segments, start)
}

// trimFenceLines narrows [start, end) past surrounding whitespace and past
// fence marker lines at either edge
func trimFenceLines(content string, start, end int) (int, int) {
	for {
		seg, ok := newSegment(content, start, end, types.BackendStructural)
		if !ok {
			return start, start
		}
		start, end = seg.Start, seg.End
		first, last := seg.Text, seg.Text
		if nl := strings.IndexByte(seg.Text, '\n'); nl >= 0 {
			first = seg.Text[:nl]
		}
		if nl := strings.LastIndexByte(seg.Text, '\n'); nl >= 0 {
			last = seg.Text[nl+1:]
		}
		switch {
		case isFenceLine(strings.TrimSpace(first)):
			start += len(first)
		case isFenceLine(strings.TrimSpace(last)):
			end -= len(last)
		default:
			return start, end
		}
	}
}

// fencedRegions returns the bodies of the fenced code blocks in content, or
// the whole content when it has none
func fencedRegions(content string) []codeRegion {
	var regions []codeRegion
	for _, u := range splitUnits(content) {
		if !u.atomic {
			continue
		}
		text := content[u.start:u.end]
		bodyStart := u.start + len(text)
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			bodyStart = u.start + nl + 1
		}
		bodyEnd := u.end
		if last := strings.LastIndexByte(text, '\n'); last >= 0 && isFenceLine(strings.TrimSpace(text[last+1:])) {
			bodyEnd = u.start + last
		}
		if bodyEnd > bodyStart {
			regions = append(regions, codeRegion{start: bodyStart, end: bodyEnd})
		}
	}
	if len(regions) == 0 {
		return []codeRegion{{start: 0, end: len(content)}}
	}
	return regions
}
