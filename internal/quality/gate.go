package quality

import (
	"fmt"
	"math"
	"sort"

	"github.com/dshills/docchunk/pkg/types"
)

// GateResult is the outcome of gating one document's chunks
type GateResult struct {
	Chunks   []types.ScoredChunk
	Accepted int
	Promoted int
}

// Fallback reports whether chunks were promoted because none passed
func (r GateResult) Fallback() bool {
	return r.Promoted > 0
}

// Gate filters scored chunks by minimum scores
type Gate struct {
	cfg Config
}

// NewGate creates a Gate
func NewGate(cfg Config) *Gate {
	return &Gate{cfg: cfg}
}

// Passes reports whether a chunk meets every minimum
func (g *Gate) Passes(c types.ScoredChunk) bool {
	return c.SemanticScore >= g.cfg.MinSemantic &&
		c.StructuralScore >= g.cfg.MinStructural &&
		c.RetrievalQuality >= g.cfg.MinRetrieval
}

// Apply keeps the chunks that pass. When candidates exist but none pass,
// the best PromotionCount chunks by overall score are kept and marked as
// quality fallbacks. Output is in document order.
func (g *Gate) Apply(scored []types.ScoredChunk) GateResult {
	accepted := make([]types.ScoredChunk, 0, len(scored))
	for _, c := range scored {
		if g.Passes(c) {
			accepted = append(accepted, c)
		}
	}
	if len(accepted) > 0 || len(scored) == 0 {
		return GateResult{Chunks: accepted, Accepted: len(accepted)}
	}

	ranked := append([]types.ScoredChunk(nil), scored...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Overall != ranked[j].Overall {
			return ranked[i].Overall > ranked[j].Overall
		}
		return ranked[i].ChunkIndex < ranked[j].ChunkIndex
	})

	n := g.PromotionCount(len(scored))
	promoted := ranked[:n]
	for i := range promoted {
		promoted[i].QualityFallback = true
		promoted[i].QualityNotes = fmt.Sprintf(
			"promoted by quality fallback (rank %d of %d): no chunk met minimums semantic>=%.2f structural>=%.2f retrieval>=%.2f",
			i+1, len(scored), g.cfg.MinSemantic, g.cfg.MinStructural, g.cfg.MinRetrieval)
	}
	sort.SliceStable(promoted, func(i, j int) bool {
		return promoted[i].ChunkIndex < promoted[j].ChunkIndex
	})

	return GateResult{Chunks: promoted, Promoted: n}
}

// PromotionCount returns max(1, min(cap, round(ratio × n)))
func (g *Gate) PromotionCount(n int) int {
	k := int(math.Round(g.cfg.FallbackRatio * float64(n)))
	if k > g.cfg.FallbackCap {
		k = g.cfg.FallbackCap
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}
