package similarity

// charSimilarity compares a and b byte by byte.
//
// Strings whose lengths differ by at most HammingWindow are compared
// positionally over their common prefix length; the length difference itself
// is ignored. All other pairs use a bounded edit distance whose band is at
// least the longer length, so the distance is exact.
func (s *Scorer) charSimilarity(a, b string) float64 {
	la, lb := len(a), len(b)
	switch {
	case la == 0 && lb == 0:
		return 1.0
	case la == 0 || lb == 0:
		return 0.0
	}

	if abs(la-lb) <= s.opts.HammingWindow {
		n := min(la, lb)
		return 1.0 - float64(hamming(a[:n], b[:n]))*(1.0/float64(n))
	}

	longest := max(la, lb)
	band := max(s.opts.ShortStringBand, longest)
	dist, ok := boundedLevenshtein(a, b, band)
	if !ok {
		return 0.0
	}
	return 1.0 - float64(dist)/float64(longest)
}

// hamming counts positional mismatches between two equal-length strings.
func hamming(a, b string) int {
	n := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			n++
		}
	}
	return n
}

// boundedLevenshtein returns the byte-level edit distance between a and b if
// it is at most k. The second result is false when the distance exceeds k.
func boundedLevenshtein(a, b string, k int) (int, bool) {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(b)-len(a) > k {
		return 0, false
	}
	if len(a) == 0 {
		return len(b), true
	}

	var dist int
	if len(a) <= 64 {
		dist = myers64(a, b)
	} else {
		var ok bool
		if dist, ok = bandedLevenshtein(a, b, k); !ok {
			return 0, false
		}
	}
	if dist > k {
		return 0, false
	}
	return dist, true
}

// myers64 computes the edit distance with the bit-parallel algorithm of Myers
// (Hyyrö's formulation). The pattern p must be 1..64 bytes long.
func myers64(p, t string) int {
	var peq [256]uint64
	for i := 0; i < len(p); i++ {
		peq[p[i]] |= 1 << uint(i)
	}

	last := uint64(1) << uint(len(p)-1)
	pv := ^uint64(0)
	mv := uint64(0)
	score := len(p)

	for j := 0; j < len(t); j++ {
		eq := peq[t[j]]
		xv := eq | mv
		xh := (((eq & pv) + pv) ^ pv) | eq
		ph := mv | ^(xh | pv)
		mh := pv & xh
		if ph&last != 0 {
			score++
		} else if mh&last != 0 {
			score--
		}
		ph = (ph << 1) | 1
		mh <<= 1
		pv = mh | ^(xv | ph)
		mv = ph & xv
	}
	return score
}

// bandedLevenshtein runs the dynamic program restricted to the diagonal band
// |i-j| <= k and stops as soon as a whole row exceeds k. len(a) <= len(b).
func bandedLevenshtein(a, b string, k int) (int, bool) {
	m := len(b)
	over := k + 1

	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for j := range prev {
		prev[j] = min(j, over)
	}

	for i := 1; i <= len(a); i++ {
		lo := max(1, i-k)
		hi := min(m, i+k)

		cur[0] = min(i, over)
		if lo > 1 {
			cur[lo-1] = over
		}
		rowMin := over
		if lo == 1 {
			rowMin = cur[0]
		}

		ai := a[i-1]
		for j := lo; j <= hi; j++ {
			v := prev[j-1]
			if ai != b[j-1] {
				v++
			}
			v = min(v, prev[j]+1, cur[j-1]+1, over)
			cur[j] = v
			rowMin = min(rowMin, v)
		}
		if hi < m {
			cur[hi+1] = over
		}

		if rowMin > k {
			return 0, false
		}
		prev, cur = cur, prev
	}

	if prev[m] > k {
		return 0, false
	}
	return prev[m], true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
