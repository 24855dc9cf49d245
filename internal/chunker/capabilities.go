package chunker

import "github.com/dshills/docchunk/internal/parser"

// Capabilities records which optional engines an Engine can use.
// It is built once the engine's lazy dependencies are resolved.
type Capabilities struct {
	HasEmbedder  bool `json:"has_embedder"`
	HasSegmenter bool `json:"has_segmenter"`

	grammars *parser.Registry
}

// HasParserFor reports whether a grammar is registered for lang
func (c Capabilities) HasParserFor(lang string) bool {
	if lang == "" {
		return false
	}
	return c.grammars.Supports(lang)
}

// Languages lists the languages with a registered grammar
func (c Capabilities) Languages() []string {
	if c.grammars == nil {
		return []string{}
	}
	return c.grammars.Languages()
}
