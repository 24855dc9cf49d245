package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/docchunk/internal/storage"
	"github.com/dshills/docchunk/pkg/types"
)

// DefaultWorkers is used when neither the indexer nor the call sets a count
const DefaultWorkers = 4

// ErrNoDocuments is returned for an empty batch
var ErrNoDocuments = errors.New("no documents to index")

// Chunker is the engine surface the indexer drives
type Chunker interface {
	Chunk(ctx context.Context, text, filename, strategy string) ([]types.Chunk, error)
}

// EngineFactory builds one Chunker per worker. Engines hold parsers that
// must not be shared between goroutines.
type EngineFactory func() (Chunker, error)

// Document is one input of a batch run
type Document struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// Result is the outcome for one document, in input order
type Result struct {
	Filename string        `json:"filename"`
	Chunks   []types.Chunk `json:"chunks"`
	Cached   bool          `json:"cached"`
	Err      error         `json:"-"`
}

// Config contains per-call settings
type Config struct {
	Workers  int    // Concurrent engines (default: the indexer's worker count)
	Strategy string // Strategy name passed to every Chunk call (default: balanced)
}

// Statistics contains statistics about a batch run
type Statistics struct {
	DocumentsProcessed int
	DocumentsEmpty     int
	DocumentsCached    int
	DocumentsFailed    int
	ChunksCreated      int
	QualityFallbacks   int
	BackendUsage       map[types.BackendName]int
	Duration           time.Duration
	ErrorMessages      []string
}

// Indexer chunks batches of documents concurrently
type Indexer struct {
	newEngine EngineFactory
	cache     storage.Cache
	logger    *zap.Logger
	workers   int
}

// Option configures an Indexer
type Option func(*Indexer)

// WithCache skips documents whose results are already cached
func WithCache(c storage.Cache) Option {
	return func(idx *Indexer) { idx.cache = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

func WithWorkers(n int) Option {
	return func(idx *Indexer) {
		if n > 0 {
			idx.workers = n
		}
	}
}

// New creates a new Indexer
func New(factory EngineFactory, opts ...Option) *Indexer {
	idx := &Indexer{
		newEngine: factory,
		logger:    zap.NewNop(),
		workers:   DefaultWorkers,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexDocuments chunks every document and returns one result per input in
// input order. Per-document failures are reported in the result and the
// statistics; the batch fails only on cancellation or when an engine cannot
// be built.
func (idx *Indexer) IndexDocuments(ctx context.Context, docs []Document, config *Config) ([]Result, *Statistics, error) {
	if len(docs) == 0 {
		return nil, nil, ErrNoDocuments
	}
	if config == nil {
		config = &Config{}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = idx.workers
	}
	workers = min(workers, len(docs))
	strategy := config.Strategy
	if strategy == "" {
		strategy = types.DefaultStrategyName
	}

	startTime := time.Now()
	results := make([]Result, len(docs))

	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i := range docs {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			engine, err := idx.newEngine()
			if err != nil {
				return fmt.Errorf("failed to create engine: %w", err)
			}
			if c, ok := engine.(io.Closer); ok {
				defer func() { _ = c.Close() }()
			}

			for i := range jobs {
				results[i] = idx.IndexDocument(gctx, engine, docs[i], strategy)
				if err := gctx.Err(); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	stats := summarize(results)
	stats.Duration = time.Since(startTime)

	idx.logger.Info("batch indexed",
		zap.Int("documents", stats.DocumentsProcessed),
		zap.Int("cached", stats.DocumentsCached),
		zap.Int("failed", stats.DocumentsFailed),
		zap.Int("chunks", stats.ChunksCreated),
		zap.Int("workers", workers),
		zap.Duration("duration", stats.Duration))

	return results, stats, nil
}

// IndexDocument chunks a single document with engine, consulting the cache
// first. An empty strategy means the default strategy.
func (idx *Indexer) IndexDocument(ctx context.Context, engine Chunker, doc Document, strategy string) Result {
	if strategy == "" {
		strategy = types.DefaultStrategyName
	}
	res := Result{Filename: doc.Filename}
	key := storage.NewKey(doc.Text, doc.Filename, strategy)

	if idx.cache != nil {
		chunks, err := idx.cache.Get(ctx, key)
		switch {
		case err == nil:
			res.Chunks = chunks
			res.Cached = true
			return res
		case !errors.Is(err, storage.ErrNotFound):
			idx.logger.Warn("cache lookup failed", zap.String("filename", doc.Filename), zap.Error(err))
		}
	}

	chunks, err := engine.Chunk(ctx, doc.Text, doc.Filename, strategy)
	if err != nil {
		res.Err = err
		return res
	}
	res.Chunks = chunks

	if idx.cache != nil {
		if err := idx.cache.Put(ctx, key, chunks); err != nil {
			idx.logger.Warn("cache store failed", zap.String("filename", doc.Filename), zap.Error(err))
		}
	}
	return res
}

func summarize(results []Result) *Statistics {
	stats := &Statistics{
		BackendUsage:  make(map[types.BackendName]int),
		ErrorMessages: make([]string, 0),
	}

	for _, r := range results {
		if r.Err != nil {
			stats.DocumentsFailed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", r.Filename, r.Err))
			continue
		}
		stats.DocumentsProcessed++
		if r.Cached {
			stats.DocumentsCached++
		}
		if len(r.Chunks) == 0 {
			stats.DocumentsEmpty++
		}
		stats.ChunksCreated += len(r.Chunks)
		for _, c := range r.Chunks {
			stats.BackendUsage[c.Metadata.Backend]++
			if c.Metadata.QualityFallback {
				stats.QualityFallbacks++
			}
		}
	}
	return stats
}

// Errors joins the per-document failures of a run, or nil
func Errors(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", strings.TrimSpace(r.Filename), r.Err))
		}
	}
	return errors.Join(errs...)
}
