package similarity

import "math"

// slidingWindow finds the best blend score between query and any contiguous
// run of target tokens whose length is within WindowPadRatio of the query's.
//
// Single-token queries and queries longer than MaxWindowQueryTokens are
// compared against the whole target instead.
func (s *Scorer) slidingWindow(query, target Prepared) float64 {
	qlen := query.Len()
	if qlen <= 1 || qlen > s.opts.MaxWindowQueryTokens {
		return s.blend(query, target)
	}

	tlen := target.Len()
	if tlen == 0 {
		return 0.0
	}

	pad := int(math.Ceil(float64(qlen) * s.opts.WindowPadRatio))
	winMin := max(qlen-pad, 1)
	winMax := min(qlen+pad, s.opts.MaxWindowTokens, tlen)

	best := 0.0
	for w := winMin; w <= winMax; w++ {
		for i := 0; i+w <= tlen; i++ {
			cand := s.blend(query, target.Span(i, i+w))
			if cand > best {
				best = cand
				if best >= 1.0 {
					return 1.0
				}
			}
		}
	}
	return best
}
