package parser

import (
	"context"
	"errors"
)

var (
	// ErrParse is returned when source cannot be turned into a syntax tree
	ErrParse = errors.New("parse failed")

	// ErrUnsupportedLanguage is returned when no grammar exists for a language
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Node is a language-neutral syntax tree node. Byte offsets are relative to
// the parsed source.
type Node struct {
	Type      string
	Name      string
	StartByte int
	EndByte   int
	Children  []*Node
	Parent    *Node
}

// Len returns the byte length of the node
func (n *Node) Len() int {
	return n.EndByte - n.StartByte
}

// Tree is the result of parsing one source text
type Tree struct {
	Language string
	Root     *Node

	// HasError is set when the parser recovered from syntax errors
	HasError bool
}

// Grammar parses source for a single language
type Grammar interface {
	Language() string
	Parse(ctx context.Context, src []byte) (*Tree, error)
	IsDeclaration(nodeType string) bool
}

// Declarations returns the outermost nodes accepted by isDecl, in source
// order. Declarations nested inside a collected node are not returned.
func (t *Tree) Declarations(isDecl func(nodeType string) bool) []*Node {
	if t == nil || t.Root == nil {
		return nil
	}
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n != t.Root && isDecl(n.Type) {
			out = append(out, n)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
