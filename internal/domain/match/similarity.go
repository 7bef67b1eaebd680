package match

import (
	"strings"
	"unicode"
)

// Similarity scores how close two free-text descriptors are, in [0,1].
// The blend is fully deterministic: normalized exact match scores 1.0, a
// substring containment is weighted above plain token overlap, and the rest
// is a mix of token-set overlap and normalized edit distance. Identical
// inputs always yield identical scores, which keeps matching reproducible
// without the external model.
func Similarity(a, b string) float64 {
	na := normalize(a)
	nb := normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}

	blend := 0.6*tokenOverlap(na, nb) + 0.4*editSimilarity(na, nb)

	// Containment of the shorter string in the longer one is stronger
	// evidence than token overlap alone.
	short, long := na, nb
	if len([]rune(short)) > len([]rune(long)) {
		short, long = long, short
	}
	if strings.Contains(long, short) {
		contained := 0.6 + 0.4*float64(len([]rune(short)))/float64(len([]rune(long)))
		if contained > blend {
			return contained
		}
	}

	return blend
}

// normalize lower-cases, trims, strips punctuation and collapses whitespace
func normalize(s string) string {
	var sb strings.Builder
	lastSpace := true
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				sb.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// drop
		default:
			sb.WriteRune(unicode.ToLower(r))
			lastSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

// tokenOverlap returns the token-set overlap coefficient of two normalized
// strings. CJK text rarely uses spaces, so single-token strings fall back to
// character bigrams.
func tokenOverlap(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}
	common := 0
	seen := make(map[string]bool, len(tb))
	for _, t := range tb {
		if set[t] && !seen[t] {
			common++
			seen[t] = true
		}
	}

	smaller := len(ta)
	if len(tb) < smaller {
		smaller = len(tb)
	}
	return float64(common) / float64(smaller)
}

// tokenize splits on spaces; strings with a single token are split into
// rune bigrams so that unspaced text still produces comparable sets
func tokenize(s string) []string {
	fields := strings.Fields(s)
	if len(fields) > 1 {
		return fields
	}
	runes := []rune(s)
	if len(runes) < 2 {
		return fields
	}
	grams := make([]string, 0, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		grams = append(grams, string(runes[i:i+2]))
	}
	return grams
}

// editSimilarity converts Levenshtein distance to a [0,1] similarity
func editSimilarity(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein computes edit distance with a two-row table
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
