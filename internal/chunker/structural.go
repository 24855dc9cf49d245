package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/docchunk/internal/tokenizer"
	"github.com/dshills/docchunk/pkg/types"
)

const terminalPunctuation = ".!?。！？"

var wordSpan = regexp.MustCompile(`\S+`)

// unit is a sentence-like span of block content. Atomic units (fenced code)
// are never split.
type unit struct {
	start, end int
	atomic     bool
}

// structuralBackend packs sentence-like units into token-bounded chunks.
// It never defers.
type structuralBackend struct {
	tok tokenizer.Tokenizer
}

func newStructuralBackend(tok tokenizer.Tokenizer) *structuralBackend {
	return &structuralBackend{tok: tok}
}

// Segment chunks content under the strategy's budget
func (b *structuralBackend) Segment(content string, s types.ChunkingStrategy) Result {
	var units []unit
	for _, u := range splitUnits(content) {
		if !u.atomic && b.tok.Count(content[u.start:u.end]) > s.MaxTokens {
			units = append(units, b.splitWords(content, u, s.MaxTokens)...)
			continue
		}
		units = append(units, u)
	}
	return Result{Segments: b.pack(content, units, s)}
}

// splitUnits breaks content into units at blank lines, at lines ending in
// terminal punctuation and around fenced code blocks. An unclosed fence runs
// to the end of the content.
func splitUnits(content string) []unit {
	var units []unit
	cur := unit{start: -1}
	flush := func() {
		if cur.start >= 0 && cur.end > cur.start {
			units = append(units, cur)
		}
		cur = unit{start: -1}
	}

	fence := ""
	for lineStart := 0; lineStart < len(content); {
		lineEnd := len(content)
		next := len(content)
		if nl := strings.IndexByte(content[lineStart:], '\n'); nl >= 0 {
			lineEnd = lineStart + nl
			next = lineEnd + 1
		}
		line := content[lineStart:lineEnd]
		trimmed := strings.TrimSpace(line)
		indent := len(line) - len(strings.TrimLeftFunc(line, unicode.IsSpace))
		textEnd := lineStart + len(strings.TrimRightFunc(line, unicode.IsSpace))

		switch {
		case fence != "":
			if trimmed != "" {
				cur.end = textEnd
			}
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
				flush()
			}
		case isFenceLine(trimmed):
			flush()
			fence = trimmed[:3]
			cur = unit{start: lineStart + indent, end: textEnd, atomic: true}
		case trimmed == "":
			flush()
		default:
			if cur.start < 0 {
				cur.start = lineStart + indent
			}
			cur.end = textEnd
			if r, _ := utf8.DecodeLastRuneInString(trimmed); strings.ContainsRune(terminalPunctuation, r) {
				flush()
			}
		}
		lineStart = next
	}
	flush()
	return units
}

func isFenceLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

// splitWords cuts an oversized unit on word boundaries. A single word over
// the budget is cut on rune boundaries.
func (b *structuralBackend) splitWords(content string, u unit, limit int) []unit {
	var out []unit
	start, end := -1, -1
	for _, w := range wordSpan.FindAllStringIndex(content[u.start:u.end], -1) {
		ws, we := u.start+w[0], u.start+w[1]
		if start >= 0 && b.tok.Count(content[start:we]) <= limit {
			end = we
			continue
		}
		if start >= 0 {
			out = append(out, unit{start: start, end: end})
		}
		if b.tok.Count(content[ws:we]) > limit {
			out = append(out, b.splitRunes(content, ws, we, limit)...)
			start, end = -1, -1
			continue
		}
		start, end = ws, we
	}
	if start >= 0 {
		out = append(out, unit{start: start, end: end})
	}
	return out
}

// splitRunes cuts content[start:end] into the longest rune-aligned pieces
// that fit the budget, at least one rune each
func (b *structuralBackend) splitRunes(content string, start, end, limit int) []unit {
	bounds := make([]int, 0, end-start)
	for i := range content[start:end] {
		if i > 0 {
			bounds = append(bounds, start+i)
		}
	}
	bounds = append(bounds, end)

	var out []unit
	next := 0
	for next < len(bounds) {
		lo, hi := next, len(bounds)-1
		for lo < hi {
			mid := (lo + hi + 1) / 2
			if b.tok.Count(content[start:bounds[mid]]) <= limit {
				lo = mid
			} else {
				hi = mid - 1
			}
		}
		out = append(out, unit{start: start, end: bounds[lo]})
		start = bounds[lo]
		next = lo + 1
	}
	return out
}

// pack greedily fills chunks with whole units. On overflow the next chunk is
// seeded with the overlap tail of the previous one when the tail and the
// next unit fit together.
func (b *structuralBackend) pack(content string, units []unit, s types.ChunkingStrategy) []Segment {
	var spans [][2]int
	cur := [2]int{-1, -1}
	for _, u := range units {
		if cur[0] < 0 {
			cur = [2]int{u.start, u.end}
			continue
		}
		if b.tok.Count(content[cur[0]:u.end]) <= s.MaxTokens {
			cur[1] = u.end
			continue
		}
		spans = append(spans, cur)
		seed := b.overlapStart(content, cur, s.TokenOverlap)
		if seed >= 0 && seed < u.start && b.tok.Count(content[seed:u.end]) <= s.MaxTokens {
			cur = [2]int{seed, u.end}
		} else {
			cur = [2]int{u.start, u.end}
		}
	}
	if cur[0] >= 0 {
		spans = append(spans, cur)
	}

	segs := make([]Segment, 0, len(spans))
	for _, sp := range spans {
		if seg, ok := newSegment(content, sp[0], sp[1], types.BackendStructural); ok {
			segs = append(segs, seg)
		}
	}
	return segs
}

// overlapStart locates the decoded last n tokens of a chunk inside the
// chunk, returning -1 when there is no usable tail
func (b *structuralBackend) overlapStart(content string, span [2]int, n int) int {
	if n <= 0 {
		return -1
	}
	text := content[span[0]:span[1]]
	tail := tokenizer.Tail(b.tok, text, n)
	if tail == text {
		return -1
	}
	tail = strings.TrimLeftFunc(strings.ToValidUTF8(tail, ""), unicode.IsSpace)
	if tail == "" {
		return -1
	}
	i := strings.LastIndex(text, tail)
	if i <= 0 {
		return -1
	}
	return span[0] + i
}
