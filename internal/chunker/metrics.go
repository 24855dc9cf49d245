package chunker

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/dshills/docchunk/chunker"

// Metrics counts engine activity
type Metrics struct {
	documents  metric.Int64Counter
	chunks     metric.Int64Counter
	fallbacks  metric.Int64Counter
	promotions metric.Int64Counter
	degraded   metric.Int64Counter
}

// NewMetrics registers the engine counters on meter. A nil meter records
// nothing.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(meterName)
	}
	m := &Metrics{}
	defs := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&m.documents, "docchunk.documents", "Documents chunked"},
		{&m.chunks, "docchunk.chunks", "Chunks emitted by backend"},
		{&m.fallbacks, "docchunk.fallbacks", "Blocks handed to a safer backend by reason"},
		{&m.promotions, "docchunk.quality_promotions", "Chunks promoted by the quality fallback"},
		{&m.degraded, "docchunk.embedder_failures", "Coherence scores computed without the embedder after a failure"},
	}
	for _, def := range defs {
		counter, err := meter.Int64Counter(def.name,
			metric.WithDescription(def.description),
			metric.WithUnit("1"))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", def.name, err)
		}
		*def.target = counter
	}
	return m, nil
}

func (m *Metrics) recordDocument(ctx context.Context, strategy string) {
	if m == nil {
		return
	}
	m.documents.Add(ctx, 1, metric.WithAttributes(attribute.String("strategy", strategy)))
}

func (m *Metrics) recordChunk(ctx context.Context, backend string) {
	if m == nil {
		return
	}
	m.chunks.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", backend)))
}

func (m *Metrics) recordFallback(ctx context.Context, from string, reason FallbackReason) {
	if m == nil {
		return
	}
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", from),
		attribute.String("reason", string(reason))))
}

func (m *Metrics) recordPromotions(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.promotions.Add(ctx, int64(n))
}

func (m *Metrics) recordEmbedderFailures(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.degraded.Add(ctx, int64(n))
}
