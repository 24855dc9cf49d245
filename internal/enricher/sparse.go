package enricher

import (
	"regexp"
	"sort"
	"unicode/utf8"

	"github.com/dshills/docchunk/pkg/types"
)

// MinTermRunes is the shortest term kept as a sparse feature
const MinTermRunes = 3

var termPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {},
	"all": {}, "any": {}, "can": {}, "has": {}, "have": {}, "this": {}, "that": {},
	"with": {}, "from": {}, "they": {}, "will": {}, "was": {}, "were": {}, "been": {},
	"its": {}, "into": {}, "than": {}, "then": {}, "there": {}, "their": {}, "which": {},
	"what": {}, "when": {}, "where": {}, "who": {}, "how": {}, "also": {}, "each": {},
	"our": {}, "your": {}, "these": {}, "those": {}, "such": {}, "may": {}, "should": {},
}

// SparseFeatures returns the topN most frequent lower-cased terms of text.
// Terms shorter than MinTermRunes and common stopwords are ignored. Weight
// is the term count over the count of all kept terms. Ties are broken
// alphabetically.
func SparseFeatures(text string, topN int) []types.SparseFeature {
	if topN <= 0 {
		return []types.SparseFeature{}
	}

	counts := make(map[string]int)
	total := 0
	for _, term := range termPattern.FindAllString(lower.String(text), -1) {
		if utf8.RuneCountInString(term) < MinTermRunes {
			continue
		}
		if _, stop := stopwords[term]; stop {
			continue
		}
		counts[term]++
		total++
	}
	if total == 0 {
		return []types.SparseFeature{}
	}

	features := make([]types.SparseFeature, 0, len(counts))
	for term, count := range counts {
		features = append(features, types.SparseFeature{
			Term:   term,
			Count:  count,
			Weight: float64(count) / float64(total),
		})
	}
	sort.Slice(features, func(i, j int) bool {
		if features[i].Count != features[j].Count {
			return features[i].Count > features[j].Count
		}
		return features[i].Term < features[j].Term
	})

	if len(features) > topN {
		features = features[:topN]
	}
	return features
}
