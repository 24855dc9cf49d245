package types

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultStrategyName is used when a requested strategy is unknown
const DefaultStrategyName = "balanced"

// ChunkingStrategy is a named, immutable token budget for segmentation
type ChunkingStrategy struct {
	Name             string `json:"name" toml:"name"`
	MaxTokens        int    `json:"max_tokens" toml:"max_tokens"`
	TokenOverlap     int    `json:"token_overlap" toml:"token_overlap"`
	MinSectionTokens int    `json:"min_section_tokens" toml:"min_section_tokens"`
	Description      string `json:"description" toml:"description"`
}

// Validate checks the budget invariants of a strategy
func (s ChunkingStrategy) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidStrategy)
	}
	if s.MaxTokens <= 0 {
		return fmt.Errorf("%w: %s: max_tokens must be positive", ErrInvalidStrategy, s.Name)
	}
	if s.TokenOverlap < 0 {
		return fmt.Errorf("%w: %s: token_overlap cannot be negative", ErrInvalidStrategy, s.Name)
	}
	if s.TokenOverlap >= s.MaxTokens {
		return fmt.Errorf("%w: %s: token_overlap %d must be smaller than max_tokens %d",
			ErrInvalidStrategy, s.Name, s.TokenOverlap, s.MaxTokens)
	}
	if s.MinSectionTokens < 0 {
		return fmt.Errorf("%w: %s: min_section_tokens cannot be negative", ErrInvalidStrategy, s.Name)
	}
	return nil
}

var presets = []ChunkingStrategy{
	{
		Name:             "precise",
		MaxTokens:        256,
		TokenOverlap:     32,
		MinSectionTokens: 64,
		Description:      "Small chunks for pinpoint retrieval of facts and definitions",
	},
	{
		Name:             "balanced",
		MaxTokens:        512,
		TokenOverlap:     64,
		MinSectionTokens: 128,
		Description:      "General purpose chunking for mixed documentation",
	},
	{
		Name:             "comprehensive",
		MaxTokens:        1024,
		TokenOverlap:     128,
		MinSectionTokens: 256,
		Description:      "Large chunks that keep whole sections together",
	},
	{
		Name:             "code",
		MaxTokens:        768,
		TokenOverlap:     48,
		MinSectionTokens: 64,
		Description:      "Declaration-sized chunks for source files",
	},
}

// StrategyTable is a lookup of strategies by name with a "balanced" fallback
type StrategyTable struct {
	byName map[string]ChunkingStrategy
}

// DefaultStrategies returns the built-in preset table
func DefaultStrategies() *StrategyTable {
	t := &StrategyTable{byName: make(map[string]ChunkingStrategy, len(presets))}
	for _, p := range presets {
		t.byName[p.Name] = p
	}
	return t
}

// NewStrategyTable builds a table from the presets plus custom strategies.
// Custom entries replace presets with the same name.
func NewStrategyTable(custom ...ChunkingStrategy) (*StrategyTable, error) {
	t := DefaultStrategies()
	for _, s := range custom {
		s.Name = strings.ToLower(strings.TrimSpace(s.Name))
		if err := s.Validate(); err != nil {
			return nil, err
		}
		t.byName[s.Name] = s
	}
	return t, nil
}

// Lookup resolves a strategy by name. Unknown names resolve to "balanced".
func (t *StrategyTable) Lookup(name string) ChunkingStrategy {
	if s, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s
	}
	return t.byName[DefaultStrategyName]
}

// Has reports whether the table defines a strategy with this name
func (t *StrategyTable) Has(name string) bool {
	_, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// All returns every strategy sorted by name
func (t *StrategyTable) All() []ChunkingStrategy {
	out := make([]ChunkingStrategy, 0, len(t.byName))
	for _, s := range t.byName {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
