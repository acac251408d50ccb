package similarity

import (
	"fmt"
	"math"
)

// Scorer computes similarity scores with a fixed set of options.
// A Scorer holds no per-call state and is safe for concurrent use.
type Scorer struct {
	opts  Options
	round float64
}

// Breakdown describes how a score was reached.
type Breakdown struct {
	// QueryTokens and TargetTokens are the token counts after orientation.
	QueryTokens  int `json:"query_tokens"`
	TargetTokens int `json:"target_tokens"`

	// Swapped is true when the second argument was used as the query.
	Swapped bool `json:"swapped"`

	// Partial is the chunked sliding-window score.
	Partial float64 `json:"partial"`

	// Blended is the whole-string blend score.
	Blended float64 `json:"blended"`

	// Score is max(Partial, Blended) clamped to [0, 1] and rounded.
	Score float64 `json:"score"`
}

var defaultScorer = &Scorer{opts: DefaultOptions(), round: math.Pow10(DefaultOptions().RoundPrecision)}

// NewScorer creates a Scorer after validating opts.
func NewScorer(opts Options) (*Scorer, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring options: %w", err)
	}
	return &Scorer{opts: opts, round: math.Pow10(opts.RoundPrecision)}, nil
}

// Default returns the Scorer configured with DefaultOptions.
func Default() *Scorer {
	return defaultScorer
}

// Options returns the options the Scorer was built with.
func (s *Scorer) Options() Options {
	return s.opts
}

// Similarity returns a score in [0, 1] for a and b, rounded to the
// configured precision. Identical strings score 1, two empty strings score 1,
// and an empty string against a non-empty one scores 0.
func (s *Scorer) Similarity(a, b string) float64 {
	return s.Explain(a, b).Score
}

// Explain scores a and b and reports the intermediate results.
//
// The input with fewer tokens becomes the query (a wins ties). The score is
// the larger of the chunked partial score and the whole-string blend.
func (s *Scorer) Explain(a, b string) Breakdown {
	query, target := Prepare(a), Prepare(b)
	swapped := false
	if query.Len() > target.Len() {
		query, target = target, query
		swapped = true
	}

	partial := s.chunkedPartial(query, target)
	blended := s.blend(query, target)
	score := math.Min(math.Max(max(partial, blended), 0), 1)

	return Breakdown{
		QueryTokens:  query.Len(),
		TargetTokens: target.Len(),
		Swapped:      swapped,
		Partial:      partial,
		Blended:      blended,
		Score:        math.Round(score*s.round) / s.round,
	}
}

// Similarity scores a and b with the default options.
func Similarity(a, b string) float64 {
	return defaultScorer.Similarity(a, b)
}

// CharSimilarity returns the character-level similarity of a and b with the
// default options.
func CharSimilarity(a, b string) float64 {
	return defaultScorer.charSimilarity(a, b)
}

// TokenJaccard returns the token-multiset Jaccard similarity of a and b with
// the default options. ok is false when both inputs are single tokens.
func TokenJaccard(a, b string) (score float64, ok bool) {
	return defaultScorer.tokenJaccard(Prepare(a), Prepare(b))
}
