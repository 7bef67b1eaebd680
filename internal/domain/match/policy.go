package match

// Policy holds the matching thresholds. The values are configuration knobs;
// the defaults are deterministic so that tests reproduce exactly.
type Policy struct {
	// SimilarityFloor is the minimum similarity for a fuzzy candidate to be
	// reported at all
	SimilarityFloor float64
	// AutoAcceptThreshold is the minimum confidence for a candidate to be
	// accepted without manual review
	AutoAcceptThreshold float64
	// MaxCandidates caps the number of fuzzy candidates returned per target
	MaxCandidates int
}

// DefaultPolicy returns the standard matching policy
func DefaultPolicy() Policy {
	return Policy{
		SimilarityFloor:     0.4,
		AutoAcceptThreshold: 0.85,
		MaxCandidates:       10,
	}
}

func (p Policy) withDefaults() Policy {
	if p.SimilarityFloor <= 0 {
		p.SimilarityFloor = 0.4
	}
	if p.AutoAcceptThreshold <= 0 {
		p.AutoAcceptThreshold = 0.85
	}
	if p.MaxCandidates <= 0 {
		p.MaxCandidates = 10
	}
	return p
}
