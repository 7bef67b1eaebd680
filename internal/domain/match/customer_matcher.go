package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/supplyhub/backend/internal/domain/partner"
	"github.com/supplyhub/backend/internal/domain/shared"
)

// CustomerMatcher resolves free-text customer descriptors against one
// company's active customers. Customers can additionally be matched by
// phone number, which ranks between exact code and fuzzy name.
type CustomerMatcher struct {
	repo      partner.CustomerRepository
	companyID uuid.UUID
	policy    Policy
	pool      []*partner.Customer
	byCode    map[string]*partner.Customer
	byPhone   map[string]*partner.Customer
}

// NewCustomerMatcher creates a matcher for one company
func NewCustomerMatcher(repo partner.CustomerRepository, companyID uuid.UUID, policy Policy) *CustomerMatcher {
	return &CustomerMatcher{
		repo:      repo,
		companyID: companyID,
		policy:    policy.withDefaults(),
	}
}

// Preload loads the active customer pool. Must be called before matching.
func (m *CustomerMatcher) Preload(ctx context.Context) error {
	customers, err := m.repo.FindActive(ctx, m.companyID)
	if err != nil {
		return fmt.Errorf("failed to preload customer pool: %w", err)
	}
	m.pool = customers
	m.byCode = make(map[string]*partner.Customer, len(customers))
	m.byPhone = make(map[string]*partner.Customer, len(customers))
	for _, c := range customers {
		m.byCode[c.Code] = c
		if c.Phone != "" {
			m.byPhone[c.Phone] = c
		}
	}
	return nil
}

// MatchByCode performs an exact, case-sensitive code lookup
func (m *CustomerMatcher) MatchByCode(ctx context.Context, code string) (*Result, error) {
	if code == "" {
		return nil, nil
	}
	if m.byCode != nil {
		if c, ok := m.byCode[code]; ok {
			return exactCustomerResult(c, StrategyExactCode), nil
		}
		return nil, nil
	}

	c, err := m.repo.FindByCode(ctx, m.companyID, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return exactCustomerResult(c, StrategyExactCode), nil
}

// MatchByPhone performs an exact phone lookup
func (m *CustomerMatcher) MatchByPhone(ctx context.Context, phone string) (*Result, error) {
	if phone == "" {
		return nil, nil
	}
	if m.byPhone != nil {
		if c, ok := m.byPhone[phone]; ok {
			return exactCustomerResult(c, StrategyPhone), nil
		}
		return nil, nil
	}

	c, err := m.repo.FindByPhone(ctx, m.companyID, phone)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return exactCustomerResult(c, StrategyPhone), nil
}

// MatchByName scans the pool for fuzzy name candidates above the similarity
// floor, sorted descending and capped at the policy maximum
func (m *CustomerMatcher) MatchByName(name string) []Result {
	if name == "" || len(m.pool) == 0 {
		return nil
	}

	var results []Result
	for _, c := range m.pool {
		score := Similarity(name, c.Name)
		if score < m.policy.SimilarityFloor {
			continue
		}
		results = append(results, Result{
			EntityID:   c.ID,
			Code:       c.Code,
			Name:       c.Name,
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

// SmartMatch tries code, then phone, then fuzzy name. The best fuzzy
// candidate below the auto-accept threshold is returned with AutoAccept
// false so the row is routed to manual review with the candidate retained.
func (m *CustomerMatcher) SmartMatch(ctx context.Context, code, name, phone string) (*Result, error) {
	if code != "" {
		result, err := m.MatchByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}
	if phone != "" {
		result, err := m.MatchByPhone(ctx, phone)
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

func exactCustomerResult(c *partner.Customer, strategy Strategy) *Result {
	return &Result{
		EntityID:   c.ID,
		Code:       c.Code,
		Name:       c.Name,
		Confidence: 1.0,
		Strategy:   strategy,
		AutoAccept: true,
	}
}
