package similarity

// blend combines the token and character metrics. When the token metric does
// not apply, the character score is returned alone.
func (s *Scorer) blend(a, b Prepared) float64 {
	char := s.charSimilarity(a.Text(), b.Text())
	if tok, ok := s.tokenJaccard(a, b); ok {
		return s.opts.TokenWeight*tok + s.opts.CharWeight*char
	}
	return char
}
