package types

import "fmt"

// StructuralBlock is a heading-delimited region of a document.
// Character offsets are rune offsets into the whole document; byte offsets
// address the same span in the UTF-8 source.
type StructuralBlock struct {
	Heading     string   // Heading text, empty for the preamble block
	Level       int      // Heading level 1-6, 0 when there is no heading
	SectionPath []string // Titles of enclosing headings, outermost first
	Content     string   // Trimmed content, heading line excluded

	StartChar int
	EndChar   int
	StartByte int
	EndByte   int
}

// Validate checks the span invariants of a block
func (b *StructuralBlock) Validate() error {
	if b.Content == "" {
		return ErrEmptyContent
	}
	if b.StartChar < 0 || b.EndChar <= b.StartChar {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidOffsets, b.StartChar, b.EndChar)
	}
	if b.EndByte-b.StartByte != len(b.Content) {
		return fmt.Errorf("%w: byte span %d does not match content length %d",
			ErrInvalidOffsets, b.EndByte-b.StartByte, len(b.Content))
	}
	return nil
}

// Path returns a copy of the section path safe for callers to retain
func (b *StructuralBlock) Path() []string {
	out := make([]string, len(b.SectionPath))
	copy(out, b.SectionPath)
	return out
}
