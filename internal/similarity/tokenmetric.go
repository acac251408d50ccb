package similarity

import "strings"

// tokenJaccard computes the multiset Jaccard similarity of the token
// frequencies of a and b: the sum of per-token minimum counts over the sum of
// per-token maximum counts.
//
// The metric does not apply when neither side has an internal whitespace
// separator (both are a single token or empty); ok is false in that case and
// the caller falls back to the character metric alone. Any Unicode
// whitespace between tokens counts as a separator; leading or trailing
// whitespace does not.
func (s *Scorer) tokenJaccard(a, b Prepared) (score float64, ok bool) {
	if a.Len() <= 1 && b.Len() <= 1 {
		return 0, false
	}

	countsA := s.countTokens(a)
	countsB := s.countTokens(b)

	var inter, union uint32
	for tok, ca := range countsA {
		cb := countsB[tok]
		inter += min(ca, cb)
		union += max(ca, cb)
	}
	for tok, cb := range countsB {
		if _, seen := countsA[tok]; !seen {
			union += cb
		}
	}

	if union == 0 {
		return 0.0, true
	}
	return float64(inter) / float64(union), true
}

// countTokens builds the token frequency map of p. Keys are substrings of the
// source string, so no token text is copied unless case folding is enabled.
func (s *Scorer) countTokens(p Prepared) map[string]uint32 {
	counts := make(map[string]uint32, p.Len())
	for i := 0; i < p.Len(); i++ {
		tok := p.TokenText(i)
		if s.opts.CaseInsensitive {
			tok = strings.ToLower(tok)
		}
		counts[tok]++
	}
	return counts
}
