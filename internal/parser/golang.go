package parser

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	goparser "go/parser"
	"go/token"
)

// syntheticPackage lets snippets without a package clause parse as a file
const syntheticPackage = "package p\n"

var goDeclarations = map[string]struct{}{
	"function_declaration": {},
	"method_declaration":   {},
	"type_declaration":     {},
}

// goGrammar parses Go with the standard library AST
type goGrammar struct{}

// NewGoGrammar returns the Go grammar
func NewGoGrammar() Grammar {
	return goGrammar{}
}

func (goGrammar) Language() string { return "go" }

func (goGrammar) IsDeclaration(nodeType string) bool {
	_, ok := goDeclarations[nodeType]
	return ok
}

// Parse parses src as a Go file. Sources without a package clause are
// retried once behind a synthetic one.
func (goGrammar) Parse(ctx context.Context, src []byte) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	file, err := goparser.ParseFile(fset, "", src, goparser.ParseComments)
	shift := 0
	if err != nil && !bytes.Contains(src, []byte("package ")) {
		prefixed := make([]byte, 0, len(syntheticPackage)+len(src))
		prefixed = append(prefixed, syntheticPackage...)
		prefixed = append(prefixed, src...)

		fset = token.NewFileSet()
		file, err = goparser.ParseFile(fset, "", prefixed, goparser.ParseComments)
		shift = len(syntheticPackage)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: go: %v", ErrParse, err)
	}

	b := &goTreeBuilder{
		fset:  fset,
		shift: shift,
		limit: len(src),
		root:  &Node{Type: "source_file", EndByte: len(src)},
	}
	ast.Inspect(file, b.visit)

	return &Tree{Language: "go", Root: b.root}, nil
}

// goTreeBuilder converts the go/ast nodes of interest into Nodes.
// ast.Inspect calls visit(nil) when leaving a node, so every entered node
// pushes a frame (nil when it is not mapped).
type goTreeBuilder struct {
	fset    *token.FileSet
	shift   int
	limit   int
	root    *Node
	frames  []*Node
	parents []*Node
}

func (b *goTreeBuilder) visit(n ast.Node) bool {
	if n == nil {
		top := b.frames[len(b.frames)-1]
		b.frames = b.frames[:len(b.frames)-1]
		if top != nil {
			b.parents = b.parents[:len(b.parents)-1]
		}
		return false
	}

	typ, name, start := b.describe(n)
	if typ == "" {
		b.frames = append(b.frames, nil)
		return true
	}

	parent := b.root
	if len(b.parents) > 0 {
		parent = b.parents[len(b.parents)-1]
	}
	node := &Node{
		Type:      typ,
		Name:      name,
		StartByte: b.offset(start),
		EndByte:   b.offset(n.End()),
		Parent:    parent,
	}
	parent.Children = append(parent.Children, node)

	b.frames = append(b.frames, node)
	b.parents = append(b.parents, node)
	return true
}

// describe maps a go/ast node to a node type, a name and the position its
// range starts at (doc comments included)
func (b *goTreeBuilder) describe(n ast.Node) (string, string, token.Pos) {
	switch d := n.(type) {
	case *ast.FuncDecl:
		start := d.Pos()
		if d.Doc != nil {
			start = d.Doc.Pos()
		}
		if d.Recv != nil && len(d.Recv.List) > 0 {
			return "method_declaration", receiverType(d.Recv.List[0].Type) + "." + d.Name.Name, start
		}
		return "function_declaration", d.Name.Name, start
	case *ast.GenDecl:
		start := d.Pos()
		if d.Doc != nil {
			start = d.Doc.Pos()
		}
		switch d.Tok {
		case token.TYPE:
			return "type_declaration", genDeclName(d), start
		case token.CONST:
			return "const_declaration", genDeclName(d), start
		case token.VAR:
			return "var_declaration", genDeclName(d), start
		case token.IMPORT:
			return "import_declaration", "", start
		}
	case *ast.TypeSpec:
		return "type_spec", d.Name.Name, d.Pos()
	case *ast.FuncLit:
		return "func_literal", "", d.Pos()
	}
	return "", "", token.NoPos
}

func (b *goTreeBuilder) offset(pos token.Pos) int {
	return clamp(b.fset.Position(pos).Offset-b.shift, 0, b.limit)
}

// receiverType extracts the receiver type name from a method
func receiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverType(t.X)
	case *ast.IndexExpr:
		return receiverType(t.X)
	case *ast.IndexListExpr:
		return receiverType(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}

func genDeclName(d *ast.GenDecl) string {
	if len(d.Specs) == 0 {
		return ""
	}
	switch s := d.Specs[0].(type) {
	case *ast.TypeSpec:
		return s.Name.Name
	case *ast.ValueSpec:
		if len(s.Names) > 0 {
			return s.Names[0].Name
		}
	}
	return ""
}
