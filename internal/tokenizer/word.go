package tokenizer

import (
	"regexp"
	"strings"
	"sync"
)

// WordEncodingName is reported by Word.Name
const WordEncodingName = "word"

// Each piece carries its leading whitespace, so concatenating the pieces of a
// text reproduces it exactly and any suffix of pieces decodes to a suffix.
var wordPiece = regexp.MustCompile(`\s*[\p{L}\p{N}_]+|\s*[^\s\p{L}\p{N}_]|\s+`)

// Word is a deterministic tokenizer splitting text into words and single
// punctuation marks. Ids are interned on first sight.
type Word struct {
	mu     sync.RWMutex
	ids    map[string]int
	pieces []string
}

// NewWord creates an empty word tokenizer
func NewWord() *Word {
	return &Word{ids: make(map[string]int)}
}

func (w *Word) Encode(text string) []int {
	pieces := wordPiece.FindAllString(text, -1)
	ids := make([]int, len(pieces))
	for i, p := range pieces {
		ids[i] = w.intern(p)
	}
	return ids
}

func (w *Word) intern(piece string) int {
	w.mu.RLock()
	id, ok := w.ids[piece]
	w.mu.RUnlock()
	if ok {
		return id
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if id, ok := w.ids[piece]; ok {
		return id
	}
	id = len(w.pieces)
	w.ids[piece] = id
	w.pieces = append(w.pieces, piece)
	return id
}

func (w *Word) Decode(ids []int) string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var b strings.Builder
	for _, id := range ids {
		if id >= 0 && id < len(w.pieces) {
			b.WriteString(w.pieces[id])
		}
	}
	return b.String()
}

// Count does not intern, so counting is cheap and lock-free
func (w *Word) Count(text string) int {
	return len(wordPiece.FindAllStringIndex(text, -1))
}

func (w *Word) Name() string {
	return WordEncodingName
}
