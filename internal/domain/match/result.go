package match

import (
	"sort"

	"github.com/google/uuid"
)

// Strategy identifies how a candidate was matched
type Strategy string

const (
	StrategyExactCode Strategy = "exact_code"
	StrategyPhone     Strategy = "phone"
	StrategyFuzzyName Strategy = "fuzzy_name"
	StrategyComposite Strategy = "composite"
)

// Priority returns the tie-break rank of the strategy.
// Exact matches beat phone/code matches, which beat fuzzy name matches.
func (s Strategy) Priority() int {
	switch s {
	case StrategyExactCode:
		return 3
	case StrategyPhone, StrategyComposite:
		return 2
	case StrategyFuzzyName:
		return 1
	}
	return 0
}

// Result is a transient candidate produced by a matcher. It is never
// persisted as-is; the row processor copies the fields it needs onto the
// RowDetail and the created order items.
type Result struct {
	EntityID   uuid.UUID `json:"entity_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Confidence float64   `json:"confidence"`
	Strategy   Strategy  `json:"strategy"`
	// AutoAccept reports whether the confidence cleared the auto-accept
	// threshold. A false value forces manual review.
	AutoAccept bool `json:"auto_accept"`
}

// SortResults orders candidates by confidence descending, breaking ties by
// strategy priority. The sort is stable so identical inputs always produce
// identical orderings.
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Strategy.Priority() > results[j].Strategy.Priority()
	})
}
