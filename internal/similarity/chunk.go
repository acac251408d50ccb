package similarity

// chunkedPartial splits target into consecutive chunks of tokens and sums the
// sliding-window score of query against each chunk. Partial matches spread
// over several chunks add up, capped at 1.
func (s *Scorer) chunkedPartial(query, target Prepared) float64 {
	tlen := target.Len()
	if tlen == 0 {
		return 0.0
	}

	qlen := max(query.Len(), 1)
	chunkLen := min(max(qlen*s.opts.ChunkQueryMultiplier, s.opts.ChunkMin), s.opts.ChunkMax, tlen)

	total := 0.0
	for start := 0; start < tlen; start += chunkLen {
		chunk := target.Span(start, min(start+chunkLen, tlen))
		total += s.slidingWindow(query, chunk)
		if total >= 1.0 {
			return 1.0
		}
	}
	return min(total, 1.0)
}
