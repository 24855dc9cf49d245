// Package structure infers the heading hierarchy of a document.
//
// Heading lines (levels 1-6) delimit structural blocks. Each block carries
// its heading, the path of enclosing headings and absolute offsets:
//
//	a := structure.New()
//	for _, b := range a.Analyze("# Guide\nintro\n\n## Install\nrun make") {
//	    fmt.Println(b.SectionPath, b.Content)
//	}
//	// [Guide] intro
//	// [Guide Install] run make
//
// Heading detection is line oriented, with goldmark deciding which lines are
// real ATX headings so that `#` comments inside fenced code blocks are left
// alone. Content before the first heading forms a block with an empty
// section path. Headings immediately followed by another heading produce no
// block.
package structure
