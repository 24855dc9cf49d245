package quality

import (
	"context"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dshills/docchunk/internal/embedder"
	"github.com/dshills/docchunk/pkg/types"
)

var (
	wordPattern      = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	headingLine      = regexp.MustCompile(`(?m)^ {0,3}#{1,6}[ \t]+\S`)
	bulletLine       = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+•]|\d+[.)])[ \t]+\S`)
	technicalTrigger = regexp.MustCompile(`(?i)\b(api|function|method|class|interface|config(?:uration)?|parameter|argument|error|exception|database|query|server|client|endpoint|protocol|algorithm|install(?:ation)?|version|module|package|library|schema|token|request|response)\b|\w+\(\)`)
	actionTrigger    = regexp.MustCompile(`(?i)\b(how to|step|steps|run|use|using|configure|create|install|set up|setup|click|enable|disable|call|example|must|should|note)\b`)
)

// Stats reports degraded scoring during a ScoreAll call
type Stats struct {
	EmbedderFailures int
}

// Scorer scores enriched chunks on semantic coherence, structural
// integrity and retrieval quality
type Scorer struct {
	cfg    Config
	emb    embedder.Embedder
	logger *zap.Logger
}

// Option configures a Scorer
type Option func(*Scorer)

// WithEmbedder enables embedding based coherence
func WithEmbedder(e embedder.Embedder) Option {
	return func(s *Scorer) { s.emb = e }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScorer creates a Scorer
func NewScorer(cfg Config, opts ...Option) *Scorer {
	s := &Scorer{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreAll scores chunks in order
func (s *Scorer) ScoreAll(ctx context.Context, chunks []types.EnrichedChunk) ([]types.ScoredChunk, Stats) {
	var stats Stats
	out := make([]types.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		sc, degraded := s.score(ctx, c)
		if degraded {
			stats.EmbedderFailures++
		}
		out = append(out, sc)
	}
	return out, stats
}

// Score scores a single chunk
func (s *Scorer) Score(ctx context.Context, c types.EnrichedChunk) types.ScoredChunk {
	sc, _ := s.score(ctx, c)
	return sc
}

func (s *Scorer) score(ctx context.Context, c types.EnrichedChunk) (types.ScoredChunk, bool) {
	semantic, degraded := s.Semantic(ctx, c.Text)
	structural := s.structural(c.Text, c.ModalHint == types.ModalCode)
	retrieval := s.Retrieval(c.Text, c.TokenCount)

	return types.ScoredChunk{
		EnrichedChunk:    c,
		SemanticScore:    semantic,
		StructuralScore:  structural,
		RetrievalQuality: retrieval,
		Overall:          (semantic + structural + retrieval) / 3,
	}, degraded
}

// Semantic returns the coherence score of text. The second result reports
// that the embedder failed and the heuristic was used instead.
func (s *Scorer) Semantic(ctx context.Context, text string) (float64, bool) {
	if s.emb == nil {
		return s.heuristicCoherence(text), false
	}

	var substantial []string
	for _, sentence := range SplitSentences(text) {
		if utf8.RuneCountInString(sentence) >= s.cfg.MinSentenceChars {
			substantial = append(substantial, sentence)
		}
	}
	if len(substantial) < 2 {
		return s.cfg.SingleSentenceScore, false
	}
	if len(substantial) > s.cfg.MaxCoherenceSentences {
		substantial = substantial[:s.cfg.MaxCoherenceSentences]
	}

	resp, err := s.emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: substantial})
	if err != nil || len(resp.Embeddings) != len(substantial) {
		s.logger.Warn("embedder failed, using heuristic coherence",
			zap.String("provider", s.emb.Provider()),
			zap.Error(err))
		return s.heuristicCoherence(text), true
	}

	var sum float64
	pairs := 0
	for i := 0; i < len(resp.Embeddings); i++ {
		for j := i + 1; j < len(resp.Embeddings); j++ {
			sum += embedder.CosineSimilarity(resp.Embeddings[i].Vector, resp.Embeddings[j].Vector)
			pairs++
		}
	}
	return clamp(sum/float64(pairs), 0, 1), false
}

func (s *Scorer) heuristicCoherence(text string) float64 {
	sentences := SplitSentences(text)
	score := s.cfg.HeuristicBase
	if len(sentences) > 0 {
		total := 0
		for _, sentence := range sentences {
			total += utf8.RuneCountInString(sentence)
		}
		avg := float64(total) / float64(len(sentences))
		if avg > s.cfg.LongSentenceChars {
			score += s.cfg.LongSentenceBonus
		}
		if avg < s.cfg.ShortSentenceChars {
			score -= s.cfg.ShortSentenceCost
		}
	}
	if LexicalDiversity(text) > s.cfg.DiversityThreshold {
		score += s.cfg.DiversityBonus
	}
	return clamp(score, s.cfg.HeuristicMin, s.cfg.HeuristicMax)
}

// Structural scores how well a chunk respects document structure. Only an
// ATX heading on the first line counts as starting with a heading, so
// "#include" or a shebang earns nothing.
func (s *Scorer) Structural(text string) float64 {
	return s.structural(text, false)
}

// structural skips the heading bonuses for code, where a "# " line is a
// comment
func (s *Scorer) structural(text string, code bool) float64 {
	trimmed := strings.TrimSpace(text)
	firstLine := trimmed
	if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
		firstLine = trimmed[:i]
	}

	score := s.cfg.StructuralBase
	if !code && headingLine.MatchString(firstLine) {
		score += s.cfg.HeadingStartBonus
	}
	if !code && headingLine.MatchString(trimmed) {
		score += s.cfg.HeadingPresentBonus
	}
	if bulletLine.MatchString(trimmed) {
		score += s.cfg.ListBonus
	}
	if !endsCleanly(trimmed) {
		score -= s.cfg.UnterminatedEndCost
	}
	return clamp(score, 0, 1)
}

// Retrieval scores how useful a chunk is likely to be as a search hit
func (s *Scorer) Retrieval(text string, tokens int) float64 {
	score := s.cfg.RetrievalDiversityWeight * LexicalDiversity(text)
	if technicalTrigger.MatchString(text) {
		score += s.cfg.TechnicalTermBonus
	}
	if actionTrigger.MatchString(text) {
		score += s.cfg.ActionPhraseBonus
	}
	score += s.cfg.LengthFitWeight * s.lengthFit(tokens)
	return clamp(score, 0, 1)
}

// lengthFit is 1 inside the ideal token range and decays linearly outside
func (s *Scorer) lengthFit(tokens int) float64 {
	lo, hi := float64(s.cfg.IdealMinTokens), float64(s.cfg.IdealMaxTokens)
	t := float64(tokens)
	switch {
	case t < lo:
		return clamp(t/lo, 0, 1)
	case t > hi:
		return clamp(1-(t-hi)/hi, 0, 1)
	default:
		return 1
	}
}

// endsCleanly reports text that ends on terminal punctuation, a closing
// code fence or a heading line
func endsCleanly(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	if strings.HasSuffix(trimmed, "```") || strings.HasSuffix(trimmed, "~~~") {
		return true
	}
	lastLine := trimmed
	if i := strings.LastIndexByte(trimmed, '\n'); i >= 0 {
		lastLine = strings.TrimSpace(trimmed[i+1:])
	}
	if headingLine.MatchString(lastLine) || strings.HasPrefix(lastLine, "|") {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(trimmed)
	return strings.ContainsRune(".!?:;)]}\"'`。！？", r)
}

// SplitSentences splits text after terminal punctuation followed by
// whitespace and at blank lines. Empty sentences are dropped.
func SplitSentences(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		b.WriteRune(r)
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		switch {
		case (r == '.' || r == '!' || r == '?' || r == '。') && (next == 0 || unicode.IsSpace(next)):
			flush()
		case r == '\n' && next == '\n':
			flush()
		}
	}
	flush()
	return out
}

// LexicalDiversity is the ratio of distinct lower-cased words to words
func LexicalDiversity(text string) float64 {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return 0
	}
	distinct := make(map[string]struct{}, len(words))
	for _, w := range words {
		distinct[w] = struct{}{}
	}
	return float64(len(distinct)) / float64(len(words))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
