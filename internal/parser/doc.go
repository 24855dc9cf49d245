// Package parser turns source code into language-neutral syntax trees.
//
// Go is parsed with the standard library (go/parser, go/ast, go/token);
// Python, JavaScript, TypeScript, Java, Rust, C, C++ and Ruby are parsed
// with tree-sitter.
//
// # Basic Usage
//
//	reg := parser.DefaultRegistry()
//	g, err := reg.Get("python")
//	if err != nil {
//	    return err
//	}
//	tree, err := g.Parse(ctx, src)
//	if err != nil {
//	    return err
//	}
//	for _, decl := range tree.Declarations(g.IsDeclaration) {
//	    fmt.Println(decl.Type, decl.Name, decl.StartByte, decl.EndByte)
//	}
//
// # Declarations
//
// Each grammar owns a set of declaration node types (functions, methods,
// classes, type declarations). Tree.Declarations returns only the outermost
// matches, so a method inside a collected class is not returned twice.
//
// # Error Handling
//
// Go sources that fail to parse are retried once behind a synthetic
// package clause, which lets bare snippets from documentation parse. A
// source that still fails returns ErrParse. Tree-sitter always recovers and
// reports syntax errors through Tree.HasError instead.
//
// # Concurrency
//
// Registry is safe for concurrent use. Grammars are built lazily and
// cached; concurrent first lookups of a language share one construction.
// A tree-sitter parser is created per Parse call.
package parser
