package parser

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dshills/docchunk/internal/modal"
)

// Factory constructs a grammar on first use
type Factory func() (Grammar, error)

// Registry resolves grammars by language hint. Grammars are constructed
// lazily and cached; concurrent first lookups share one construction.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	grammars  map[string]Grammar
	group     singleflight.Group
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		grammars:  make(map[string]Grammar),
	}
}

// DefaultRegistry registers Go and every tree-sitter language. When
// languages is non-empty only those are registered.
func DefaultRegistry(languages ...string) *Registry {
	r := NewRegistry()

	all := append([]string{"go"}, TreeSitterLanguages()...)
	enabled := make(map[string]bool, len(languages))
	for _, l := range languages {
		enabled[modal.NormalizeLanguage(l)] = true
	}

	for _, lang := range all {
		if len(enabled) > 0 && !enabled[lang] {
			continue
		}
		if lang == "go" {
			r.RegisterFactory("go", func() (Grammar, error) { return NewGoGrammar(), nil })
			continue
		}
		lang := lang
		r.RegisterFactory(lang, func() (Grammar, error) { return NewTreeSitterGrammar(lang) })
	}
	return r
}

// RegisterFactory adds a lazily constructed grammar
func (r *Registry) RegisterFactory(lang string, f Factory) {
	lang = modal.NormalizeLanguage(lang)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[lang] = f
	delete(r.grammars, lang)
}

// Register adds an already constructed grammar
func (r *Registry) Register(g Grammar) {
	lang := modal.NormalizeLanguage(g.Language())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[lang] = func() (Grammar, error) { return g, nil }
	r.grammars[lang] = g
}

// Supports reports whether a grammar is registered for lang
func (r *Registry) Supports(lang string) bool {
	if r == nil || lang == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[modal.NormalizeLanguage(lang)]
	return ok
}

// Languages returns the registered languages, sorted
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]string, 0, len(r.factories))
	for lang := range r.factories {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Get returns the grammar for lang, constructing it on first use
func (r *Registry) Get(lang string) (Grammar, error) {
	lang = modal.NormalizeLanguage(lang)

	r.mu.RLock()
	g, ok := r.grammars[lang]
	factory, registered := r.factories[lang]
	r.mu.RUnlock()
	if ok {
		return g, nil
	}
	if !registered {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}

	v, err, _ := r.group.Do(lang, func() (interface{}, error) {
		r.mu.RLock()
		cached, ok := r.grammars[lang]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		built, err := factory()
		if err != nil {
			return nil, fmt.Errorf("failed to build %s grammar: %w", lang, err)
		}

		r.mu.Lock()
		r.grammars[lang] = built
		r.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Grammar), nil
}

// Warm constructs the grammars for langs ahead of use
func (r *Registry) Warm(langs ...string) error {
	for _, lang := range langs {
		if _, err := r.Get(lang); err != nil {
			return err
		}
	}
	return nil
}
