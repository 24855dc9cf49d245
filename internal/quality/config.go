package quality

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Config.Validate
var ErrInvalidConfig = errors.New("invalid quality config")

// Config holds every threshold and constant used by the scorer and gate
type Config struct {
	// Gate minimums
	MinSemantic   float64 `toml:"min_semantic" json:"min_semantic"`
	MinStructural float64 `toml:"min_structural" json:"min_structural"`
	MinRetrieval  float64 `toml:"min_retrieval" json:"min_retrieval"`

	// Promotion when nothing passes the gate
	FallbackRatio float64 `toml:"fallback_ratio" json:"fallback_ratio"`
	FallbackCap   int     `toml:"fallback_cap" json:"fallback_cap"`

	// Semantic coherence
	SingleSentenceScore   float64 `toml:"single_sentence_score" json:"single_sentence_score"`
	MinSentenceChars      int     `toml:"min_sentence_chars" json:"min_sentence_chars"`
	MaxCoherenceSentences int     `toml:"max_coherence_sentences" json:"max_coherence_sentences"`

	// Heuristic coherence when no embedder is available
	HeuristicBase      float64 `toml:"heuristic_base" json:"heuristic_base"`
	LongSentenceChars  float64 `toml:"long_sentence_chars" json:"long_sentence_chars"`
	ShortSentenceChars float64 `toml:"short_sentence_chars" json:"short_sentence_chars"`
	DiversityThreshold float64 `toml:"diversity_threshold" json:"diversity_threshold"`
	LongSentenceBonus  float64 `toml:"long_sentence_bonus" json:"long_sentence_bonus"`
	ShortSentenceCost  float64 `toml:"short_sentence_cost" json:"short_sentence_cost"`
	DiversityBonus     float64 `toml:"diversity_bonus" json:"diversity_bonus"`
	HeuristicMin       float64 `toml:"heuristic_min" json:"heuristic_min"`
	HeuristicMax       float64 `toml:"heuristic_max" json:"heuristic_max"`

	// Structural integrity
	StructuralBase      float64 `toml:"structural_base" json:"structural_base"`
	HeadingStartBonus   float64 `toml:"heading_start_bonus" json:"heading_start_bonus"`
	HeadingPresentBonus float64 `toml:"heading_present_bonus" json:"heading_present_bonus"`
	ListBonus           float64 `toml:"list_bonus" json:"list_bonus"`
	UnterminatedEndCost float64 `toml:"unterminated_end_cost" json:"unterminated_end_cost"`

	// Retrieval quality
	RetrievalDiversityWeight float64 `toml:"retrieval_diversity_weight" json:"retrieval_diversity_weight"`
	TechnicalTermBonus       float64 `toml:"technical_term_bonus" json:"technical_term_bonus"`
	ActionPhraseBonus        float64 `toml:"action_phrase_bonus" json:"action_phrase_bonus"`
	LengthFitWeight          float64 `toml:"length_fit_weight" json:"length_fit_weight"`
	IdealMinTokens           int     `toml:"ideal_min_tokens" json:"ideal_min_tokens"`
	IdealMaxTokens           int     `toml:"ideal_max_tokens" json:"ideal_max_tokens"`
}

// DefaultConfig returns the default scoring constants
func DefaultConfig() Config {
	return Config{
		MinSemantic:   0.3,
		MinStructural: 0.3,
		MinRetrieval:  0.3,

		FallbackRatio: 0.3,
		FallbackCap:   5,

		SingleSentenceScore:   0.85,
		MinSentenceChars:      20,
		MaxCoherenceSentences: 5,

		HeuristicBase:      0.6,
		LongSentenceChars:  120,
		ShortSentenceChars: 60,
		DiversityThreshold: 0.7,
		LongSentenceBonus:  0.1,
		ShortSentenceCost:  0.1,
		DiversityBonus:     0.1,
		HeuristicMin:       0.4,
		HeuristicMax:       0.9,

		StructuralBase:      0.4,
		HeadingStartBonus:   0.3,
		HeadingPresentBonus: 0.2,
		ListBonus:           0.1,
		UnterminatedEndCost: 0.2,

		RetrievalDiversityWeight: 0.3,
		TechnicalTermBonus:       0.2,
		ActionPhraseBonus:        0.2,
		LengthFitWeight:          0.3,
		IdealMinTokens:           500,
		IdealMaxTokens:           1500,
	}
}

// Validate checks ranges of the configuration. Every score, bonus, cost
// and weight lies in [0, 1].
func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"min_semantic":               c.MinSemantic,
		"min_structural":             c.MinStructural,
		"min_retrieval":              c.MinRetrieval,
		"fallback_ratio":             c.FallbackRatio,
		"single_sentence_score":      c.SingleSentenceScore,
		"heuristic_base":             c.HeuristicBase,
		"long_sentence_bonus":        c.LongSentenceBonus,
		"short_sentence_cost":        c.ShortSentenceCost,
		"diversity_bonus":            c.DiversityBonus,
		"heuristic_min":              c.HeuristicMin,
		"heuristic_max":              c.HeuristicMax,
		"structural_base":            c.StructuralBase,
		"heading_start_bonus":        c.HeadingStartBonus,
		"heading_present_bonus":      c.HeadingPresentBonus,
		"list_bonus":                 c.ListBonus,
		"unterminated_end_cost":      c.UnterminatedEndCost,
		"retrieval_diversity_weight": c.RetrievalDiversityWeight,
		"technical_term_bonus":       c.TechnicalTermBonus,
		"action_phrase_bonus":        c.ActionPhraseBonus,
		"length_fit_weight":          c.LengthFitWeight,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%f outside [0, 1]", ErrInvalidConfig, name, v)
		}
	}
	if c.HeuristicMin > c.HeuristicMax {
		return fmt.Errorf("%w: heuristic_min > heuristic_max", ErrInvalidConfig)
	}
	if c.FallbackCap < 1 {
		return fmt.Errorf("%w: fallback_cap must be at least 1", ErrInvalidConfig)
	}
	if c.MaxCoherenceSentences < 2 {
		return fmt.Errorf("%w: max_coherence_sentences must be at least 2", ErrInvalidConfig)
	}
	if c.IdealMinTokens <= 0 || c.IdealMaxTokens < c.IdealMinTokens {
		return fmt.Errorf("%w: ideal token range [%d, %d]", ErrInvalidConfig, c.IdealMinTokens, c.IdealMaxTokens)
	}
	return nil
}
