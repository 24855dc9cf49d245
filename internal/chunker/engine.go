package chunker

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/dshills/docchunk/internal/embedder"
	"github.com/dshills/docchunk/internal/enricher"
	"github.com/dshills/docchunk/internal/modal"
	"github.com/dshills/docchunk/internal/parser"
	"github.com/dshills/docchunk/internal/quality"
	"github.com/dshills/docchunk/internal/structure"
	"github.com/dshills/docchunk/internal/tokenizer"
	"github.com/dshills/docchunk/pkg/types"
)

// DefaultSegmenterCacheSize is the number of cached splitters per engine
const DefaultSegmenterCacheSize = 16

// Engine turns documents into scored chunks.
// An Engine may be shared, but Chunk is CPU bound and callers that need
// throughput should run one engine per worker.
type Engine struct {
	logger     *zap.Logger
	strategies *types.StrategyTable
	custom     []types.ChunkingStrategy
	encoding   string
	enrichCfg  enricher.Config
	qualityCfg quality.Config
	meter      metric.Meter
	metrics    *Metrics

	emb          embedder.Embedder
	ownsEmbedder bool

	grammars    *parser.Registry
	grammarsSet bool

	segmenter          Segmenter
	segmenterSet       bool
	segmenterCacheSize int

	analyzer   *structure.Analyzer
	classifier *modal.Classifier

	initOnce   sync.Once
	tok        tokenizer.Tokenizer
	structural *structuralBackend
	tokens     *tokenBudgetBackend
	syntax     *syntaxTreeBackend
	enricher   *enricher.Enricher
	scorer     *quality.Scorer
	gate       *quality.Gate
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTokenizer sets the canonical tokenizer. By default a tiktoken
// tokenizer is built on first use.
func WithTokenizer(t tokenizer.Tokenizer) Option {
	return func(e *Engine) { e.tok = t }
}

// WithEncoding selects the tiktoken encoding used when no tokenizer is set
func WithEncoding(name string) Option {
	return func(e *Engine) { e.encoding = name }
}

// WithEmbedder enables embedding based coherence scoring
func WithEmbedder(emb embedder.Embedder) Option {
	return func(e *Engine) { e.emb = emb }
}

// WithSegmenter sets the token-budget segmenter. A nil segmenter disables
// the token-budget backend.
func WithSegmenter(s Segmenter) Option {
	return func(e *Engine) {
		e.segmenter = s
		e.segmenterSet = true
	}
}

// WithSegmenterCacheSize sizes the splitter cache of the default segmenter
func WithSegmenterCacheSize(n int) Option {
	return func(e *Engine) { e.segmenterCacheSize = n }
}

// WithGrammars sets the grammar registry. A nil registry disables the
// syntax-tree backend.
func WithGrammars(r *parser.Registry) Option {
	return func(e *Engine) {
		e.grammars = r
		e.grammarsSet = true
	}
}

// WithStrategies adds custom strategies to the preset table
func WithStrategies(s ...types.ChunkingStrategy) Option {
	return func(e *Engine) { e.custom = append(e.custom, s...) }
}

// WithEnrichment sets the enrichment config
func WithEnrichment(cfg enricher.Config) Option {
	return func(e *Engine) { e.enrichCfg = cfg }
}

// WithQuality sets the scoring and gate config
func WithQuality(cfg quality.Config) Option {
	return func(e *Engine) { e.qualityCfg = cfg }
}

// WithMeter records engine counters on meter
func WithMeter(m metric.Meter) Option {
	return func(e *Engine) { e.meter = m }
}

// New creates an Engine. It fails only on invalid configuration, such as a
// strategy whose overlap is not below its max tokens.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:             zap.NewNop(),
		encoding:           tokenizer.DefaultEncoding,
		enrichCfg:          enricher.DefaultConfig(),
		qualityCfg:         quality.DefaultConfig(),
		segmenterCacheSize: DefaultSegmenterCacheSize,
		analyzer:           structure.New(),
		classifier:         modal.New(),
	}
	for _, opt := range opts {
		opt(e)
	}

	table, err := types.NewStrategyTable(e.custom...)
	if err != nil {
		return nil, err
	}
	e.strategies = table

	if err := e.enrichCfg.Validate(); err != nil {
		return nil, err
	}
	if err := e.qualityCfg.Validate(); err != nil {
		return nil, err
	}

	if !e.grammarsSet {
		e.grammars = parser.DefaultRegistry()
	}

	metrics, err := NewMetrics(e.meter)
	if err != nil {
		return nil, err
	}
	e.metrics = metrics

	return e, nil
}

// init builds the tokenizer dependent parts on first use
func (e *Engine) init() {
	e.initOnce.Do(func() {
		if e.tok == nil {
			tok, err := tokenizer.NewTiktoken(e.encoding)
			if err != nil {
				e.logger.Warn("tiktoken unavailable, using word tokenizer",
					zap.String("encoding", e.encoding),
					zap.Error(err))
				e.tok = tokenizer.NewWord()
			} else {
				e.tok = tok
			}
		}
		if !e.segmenterSet {
			e.segmenter = NewLangchainSegmenter(e.tok, e.segmenterCacheSize)
		}

		e.structural = newStructuralBackend(e.tok)
		if e.segmenter != nil {
			e.tokens = &tokenBudgetBackend{seg: e.segmenter}
		}
		if e.grammars != nil {
			e.syntax = &syntaxTreeBackend{
				grammars:   e.grammars,
				tok:        e.tok,
				tokens:     e.tokens,
				structural: e.structural,
			}
		}
		e.enricher = enricher.New(e.tok, e.enrichCfg)
		e.scorer = quality.NewScorer(e.qualityCfg,
			quality.WithEmbedder(e.emb),
			quality.WithLogger(e.logger))
		e.gate = quality.NewGate(e.qualityCfg)
	})
}

// Warm builds the tokenizer and the grammars for langs ahead of use
func (e *Engine) Warm(langs ...string) error {
	e.init()
	if e.grammars == nil {
		return nil
	}
	return e.grammars.Warm(langs...)
}

// Capabilities reports the optional engines this Engine can use
func (e *Engine) Capabilities() Capabilities {
	e.init()
	return Capabilities{
		HasEmbedder:  e.emb != nil,
		HasSegmenter: e.tokens != nil,
		grammars:     e.grammars,
	}
}

// Strategies returns every known strategy sorted by name
func (e *Engine) Strategies() []types.ChunkingStrategy {
	return e.strategies.All()
}

// Strategy resolves a strategy name, falling back to "balanced"
func (e *Engine) Strategy(name string) types.ChunkingStrategy {
	return e.strategies.Lookup(name)
}

// Tokenizer returns the canonical tokenizer
func (e *Engine) Tokenizer() tokenizer.Tokenizer {
	e.init()
	return e.tok
}

// Close releases an embedder built by NewFromConfig
func (e *Engine) Close() error {
	if e.ownsEmbedder && e.emb != nil {
		return e.emb.Close()
	}
	return nil
}

// Chunk splits text into scored chunks. Unknown strategy names use
// "balanced". Whitespace-only text yields no chunks. Optional engine
// failures never fail the call; the only error is a canceled context.
func (e *Engine) Chunk(ctx context.Context, text, filename, strategyName string) ([]types.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	strategy := e.strategies.Lookup(strategyName)
	if strings.TrimSpace(text) == "" {
		return []types.Chunk{}, nil
	}
	e.init()
	e.metrics.recordDocument(ctx, strategy.Name)

	caps := e.Capabilities()
	idx := types.NewCharIndex(text)
	blocks := e.blocks(text, filename)

	var raws []types.RawChunk
	for i := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := &blocks[i]
		segs, lang := e.segmentBlock(ctx, b, filename, strategy, caps)
		for _, seg := range segs {
			raws = append(raws, types.RawChunk{
				Text:        seg.Text,
				SectionPath: b.Path(),
				Heading:     b.Heading,
				StartChar:   idx.Char(b.StartByte + seg.Start),
				EndChar:     idx.Char(b.StartByte + seg.End),
				ChunkIndex:  len(raws),
				Backend:     seg.Backend,
				Language:    lang,
			})
		}
	}

	enriched := e.enricher.EnrichAll(raws, filename)
	scored, stats := e.scorer.ScoreAll(ctx, enriched)
	e.metrics.recordEmbedderFailures(ctx, stats.EmbedderFailures)

	res := e.gate.Apply(scored)
	if res.Fallback() {
		e.logger.Debug("no chunk passed the quality gate, promoting best candidates",
			zap.String("file", filename),
			zap.Int("candidates", len(scored)),
			zap.Int("promoted", res.Promoted))
		e.metrics.recordPromotions(ctx, res.Promoted)
	}

	out := make([]types.Chunk, 0, len(res.Chunks))
	for i := range res.Chunks {
		out = append(out, types.NewChunk(&res.Chunks[i], strategy.Name))
		e.metrics.recordChunk(ctx, string(res.Chunks[i].Backend))
	}
	return out, nil
}

// blocks splits markup documents at headings. Source and data files, and
// documents made only of headings, are a single block.
func (e *Engine) blocks(text, filename string) []types.StructuralBlock {
	if !modal.IsMarkup(modal.LanguageFromFilename(filename)) {
		return e.analyzer.Whole(text)
	}
	if blocks := e.analyzer.Analyze(text); len(blocks) > 0 {
		return blocks
	}
	return e.analyzer.Whole(text)
}

// segmentBlock runs the selected backend over one block, falling back to
// the structural backend when it defers. The language is reported only for
// code blocks.
func (e *Engine) segmentBlock(ctx context.Context, b *types.StructuralBlock, filename string,
	s types.ChunkingStrategy, caps Capabilities) ([]Segment, string) {
	hint := e.classifier.Classify(b.Content)
	lang := ""
	if hint == types.ModalCode {
		lang = modal.ResolveLanguage(b.Content, filename)
	}

	var r Result
	var err error
	backend := Select(hint, lang, caps)
	switch backend {
	case types.BackendSyntaxTree:
		r, err = e.syntax.Segment(ctx, b.Content, lang, s)
	case types.BackendTokenBudget:
		r, err = e.tokens.Segment(b.Content, s)
	default:
		r = e.structural.Segment(b.Content, s)
	}
	if r.Deferred() {
		e.deferred(ctx, b, backend, r.Fallback, err)
		r = e.structural.Segment(b.Content, s)
	}
	return mergeSmall(b.Content, r.Segments, s, e.tok), lang
}

func (e *Engine) deferred(ctx context.Context, b *types.StructuralBlock, from types.BackendName,
	reason FallbackReason, err error) {
	fields := []zap.Field{
		zap.String("backend", string(from)),
		zap.String("reason", string(reason)),
		zap.Strings("section_path", b.SectionPath),
	}
	if reason == FallbackSegmenterFailed {
		e.logger.Warn("segmenter failed, using structural backend", append(fields, zap.Error(err))...)
	} else {
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		e.logger.Debug("backend deferred block to structural backend", fields...)
	}
	e.metrics.recordFallback(ctx, string(from), reason)
}
