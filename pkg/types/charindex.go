package types

import "unicode/utf8"

// CharIndex converts byte offsets of a UTF-8 document into character offsets.
// Offsets that fall inside a multi-byte rune map to that rune's index.
type CharIndex struct {
	runeAt []int // runeAt[b] = character index of byte offset b
	chars  int
}

// NewCharIndex builds the lookup for text
func NewCharIndex(text string) *CharIndex {
	idx := &CharIndex{runeAt: make([]int, len(text)+1)}
	n := 0
	for b := 0; b < len(text); {
		_, size := utf8.DecodeRuneInString(text[b:])
		for k := 0; k < size; k++ {
			idx.runeAt[b+k] = n
		}
		b += size
		n++
	}
	idx.runeAt[len(text)] = n
	idx.chars = n
	return idx
}

// Char returns the character offset for a byte offset, clamped to the document
func (c *CharIndex) Char(byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset >= len(c.runeAt) {
		return c.chars
	}
	return c.runeAt[byteOffset]
}

// Len returns the document length in characters
func (c *CharIndex) Len() int {
	return c.chars
}
