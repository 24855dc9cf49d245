package parser

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// treeSitterLanguage describes one tree-sitter backed grammar
type treeSitterLanguage struct {
	language     func() *sitter.Language
	declarations []string
}

var treeSitterLanguages = map[string]treeSitterLanguage{
	"python": {
		language:     python.GetLanguage,
		declarations: []string{"function_definition", "class_definition", "decorated_definition"},
	},
	"javascript": {
		language: javascript.GetLanguage,
		declarations: []string{
			"function_declaration", "generator_function_declaration", "class_declaration",
			"method_definition", "export_statement",
		},
	},
	"typescript": {
		language: typescript.GetLanguage,
		declarations: []string{
			"function_declaration", "generator_function_declaration", "class_declaration",
			"abstract_class_declaration", "method_definition", "interface_declaration",
			"type_alias_declaration", "enum_declaration", "export_statement",
		},
	},
	"java": {
		language: java.GetLanguage,
		declarations: []string{
			"class_declaration", "interface_declaration", "enum_declaration",
			"record_declaration", "method_declaration", "constructor_declaration",
		},
	},
	"rust": {
		language: rust.GetLanguage,
		declarations: []string{
			"function_item", "struct_item", "enum_item", "impl_item",
			"trait_item", "mod_item", "macro_definition",
		},
	},
	"c": {
		language:     c.GetLanguage,
		declarations: []string{"function_definition", "struct_specifier", "enum_specifier", "type_definition"},
	},
	"cpp": {
		language: cpp.GetLanguage,
		declarations: []string{
			"function_definition", "class_specifier", "struct_specifier", "enum_specifier",
			"namespace_definition", "template_declaration",
		},
	},
	"ruby": {
		language:     ruby.GetLanguage,
		declarations: []string{"method", "singleton_method", "class", "module"},
	},
}

// TreeSitterLanguages lists the languages backed by tree-sitter
func TreeSitterLanguages() []string {
	langs := make([]string, 0, len(treeSitterLanguages))
	for lang := range treeSitterLanguages {
		langs = append(langs, lang)
	}
	return langs
}

type treeSitterGrammar struct {
	lang         string
	language     *sitter.Language
	declarations map[string]struct{}
}

// NewTreeSitterGrammar builds the tree-sitter grammar for lang
func NewTreeSitterGrammar(lang string) (Grammar, error) {
	spec, ok := treeSitterLanguages[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
	decls := make(map[string]struct{}, len(spec.declarations))
	for _, d := range spec.declarations {
		decls[d] = struct{}{}
	}
	return &treeSitterGrammar{
		lang:         lang,
		language:     spec.language(),
		declarations: decls,
	}, nil
}

func (g *treeSitterGrammar) Language() string { return g.lang }

func (g *treeSitterGrammar) IsDeclaration(nodeType string) bool {
	_, ok := g.declarations[nodeType]
	return ok
}

// Parse builds a fresh tree-sitter parser per call; parsers are not safe
// for concurrent use.
func (g *treeSitterGrammar) Parse(ctx context.Context, src []byte) (*Tree, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(g.language)

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, g.lang, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("%w: %s: no tree", ErrParse, g.lang)
	}
	defer tree.Close()

	root := tree.RootNode()
	return &Tree{
		Language: g.lang,
		Root:     convertNode(root, nil, src),
		HasError: root.HasError(),
	}, nil
}

// convertNode copies the named nodes of a tree-sitter tree so the result
// outlives the C tree
func convertNode(n *sitter.Node, parent *Node, src []byte) *Node {
	out := &Node{
		Type:      n.Type(),
		StartByte: clamp(int(n.StartByte()), 0, len(src)),
		EndByte:   clamp(int(n.EndByte()), 0, len(src)),
		Parent:    parent,
	}
	if name := n.ChildByFieldName("name"); name != nil {
		out.Name = name.Content(src)
	}
	count := int(n.NamedChildCount())
	if count > 0 {
		out.Children = make([]*Node, 0, count)
	}
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		out.Children = append(out.Children, convertNode(child, out, src))
	}
	return out
}
