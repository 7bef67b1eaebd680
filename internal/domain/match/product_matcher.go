package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/supplyhub/backend/internal/domain/catalog"
	"github.com/supplyhub/backend/internal/domain/shared"
)

// ProductMatcher resolves free-text product descriptors against one
// company's active catalog. Preload loads the candidate pool once; after
// that every method is read-only and safe for concurrent row workers.
type ProductMatcher struct {
	repo      catalog.ProductRepository
	companyID uuid.UUID
	policy    Policy
	pool      []*catalog.Product
	bySKU     map[string]*catalog.Product
}

// NewProductMatcher creates a matcher for one company
func NewProductMatcher(repo catalog.ProductRepository, companyID uuid.UUID, policy Policy) *ProductMatcher {
	return &ProductMatcher{
		repo:      repo,
		companyID: companyID,
		policy:    policy.withDefaults(),
	}
}

// Preload loads the active product pool. Must be called before matching.
func (m *ProductMatcher) Preload(ctx context.Context) error {
	products, err := m.repo.FindActive(ctx, m.companyID)
	if err != nil {
		return fmt.Errorf("failed to preload product pool: %w", err)
	}
	m.pool = products
	m.bySKU = make(map[string]*catalog.Product, len(products))
	for _, p := range products {
		m.bySKU[p.SKU] = p
	}
	return nil
}

// MatchBySKU performs an exact, case-sensitive SKU lookup
func (m *ProductMatcher) MatchBySKU(ctx context.Context, sku string) (*Result, error) {
	if sku == "" {
		return nil, nil
	}
	if m.bySKU != nil {
		if p, ok := m.bySKU[sku]; ok {
			return exactProductResult(p), nil
		}
		return nil, nil
	}

	p, err := m.repo.FindBySKU(ctx, m.companyID, sku)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return exactProductResult(p), nil
}

// MatchByName scans the pool for fuzzy name candidates above the similarity
// floor, sorted descending and capped at the policy maximum
func (m *ProductMatcher) MatchByName(name string) []Result {
	if name == "" || len(m.pool) == 0 {
		return nil
	}

	var results []Result
	for _, p := range m.pool {
		score := Similarity(name, p.DisplayName())
		if byName := Similarity(name, p.Name); byName > score {
			score = byName
		}
		if score < m.policy.SimilarityFloor {
			continue
		}
		results = append(results, Result{
			EntityID:   p.ID,
			Code:       p.SKU,
			Name:       p.Name,
			Confidence: score,
			Strategy:   StrategyFuzzyName,
			AutoAccept: score >= m.policy.AutoAcceptThreshold,
		})
	}

	SortResults(results)
	if len(results) > m.policy.MaxCandidates {
		results = results[:m.policy.MaxCandidates]
	}
	return results
}

// SmartMatch tries the SKU first and falls back to fuzzy name matching.
// A fuzzy candidate below the auto-accept threshold is still returned so the
// operator can review it, but with AutoAccept false.
func (m *ProductMatcher) SmartMatch(ctx context.Context, sku, name string) (*Result, error) {
	if sku != "" {
		result, err := m.MatchBySKU(ctx, sku)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}

	candidates := m.MatchByName(name)
	if len(candidates) == 0 {
		return nil, nil
	}
	best := candidates[0]
	return &best, nil
}

// BatchMatchByName matches many descriptors against the pool in one pass,
// keyed by the original input
func (m *ProductMatcher) BatchMatchByName(names []string) map[string][]Result {
	out := make(map[string][]Result, len(names))
	for _, n := range names {
		if _, done := out[n]; done {
			continue
		}
		out[n] = m.MatchByName(n)
	}
	return out
}

func exactProductResult(p *catalog.Product) *Result {
	return &Result{
		EntityID:   p.ID,
		Code:       p.SKU,
		Name:       p.Name,
		Confidence: 1.0,
		Strategy:   StrategyExactCode,
		AutoAccept: true,
	}
}
