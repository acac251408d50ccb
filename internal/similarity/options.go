package similarity

import (
	"fmt"
	"math"

	"github.com/nvandessel/fuzler/internal/constants"
)

// Options holds the tunable thresholds of the scorer.
type Options struct {
	// HammingWindow is the largest byte-length difference that still takes the
	// positional fast path in the character metric.
	HammingWindow int `json:"hamming_window" yaml:"hamming_window" toml:"hamming_window"`

	// ShortStringBand is the minimum band for the bounded edit distance.
	ShortStringBand int `json:"short_string_band" yaml:"short_string_band" toml:"short_string_band"`

	// ChunkMin and ChunkMax bound the number of target tokens per chunk.
	ChunkMin int `json:"chunk_min" yaml:"chunk_min" toml:"chunk_min"`
	ChunkMax int `json:"chunk_max" yaml:"chunk_max" toml:"chunk_max"`

	// ChunkQueryMultiplier scales the query token count into a chunk length.
	ChunkQueryMultiplier int `json:"chunk_query_multiplier" yaml:"chunk_query_multiplier" toml:"chunk_query_multiplier"`

	// WindowPadRatio is the fractional padding around the query token count
	// used to size sliding windows.
	WindowPadRatio float64 `json:"window_pad_ratio" yaml:"window_pad_ratio" toml:"window_pad_ratio"`

	// MaxWindowTokens caps the size of a sliding window.
	MaxWindowTokens int `json:"max_window_tokens" yaml:"max_window_tokens" toml:"max_window_tokens"`

	// MaxWindowQueryTokens is the longest query matched with sliding windows.
	MaxWindowQueryTokens int `json:"max_window_query_tokens" yaml:"max_window_query_tokens" toml:"max_window_query_tokens"`

	// TokenWeight and CharWeight blend the two metrics. They must sum to 1.
	TokenWeight float64 `json:"token_weight" yaml:"token_weight" toml:"token_weight"`
	CharWeight  float64 `json:"char_weight" yaml:"char_weight" toml:"char_weight"`

	// RoundPrecision is the number of decimal places in the final score.
	RoundPrecision int `json:"round_precision" yaml:"round_precision" toml:"round_precision"`

	// CaseInsensitive lowercases tokens before counting them in the token
	// metric. The character metric always compares raw bytes.
	CaseInsensitive bool `json:"case_insensitive" yaml:"case_insensitive" toml:"case_insensitive"`
}

// DefaultOptions returns the standard scoring thresholds.
func DefaultOptions() Options {
	return Options{
		HammingWindow:        constants.HammingWindow,
		ShortStringBand:      constants.ShortStringBand,
		ChunkMin:             constants.ChunkMin,
		ChunkMax:             constants.ChunkMax,
		ChunkQueryMultiplier: constants.ChunkQueryMultiplier,
		WindowPadRatio:       constants.WindowPadRatio,
		MaxWindowTokens:      constants.MaxWindowTokens,
		MaxWindowQueryTokens: constants.MaxWindowQueryTokens,
		TokenWeight:          constants.TokenWeight,
		CharWeight:           constants.CharWeight,
		RoundPrecision:       constants.RoundPrecision,
	}
}

// Validate checks that the options keep every score within [0, 1] and every
// loop bounded.
func (o Options) Validate() error {
	if o.HammingWindow < 0 {
		return fmt.Errorf("hamming_window must be non-negative, got %d", o.HammingWindow)
	}
	if o.ShortStringBand < 0 {
		return fmt.Errorf("short_string_band must be non-negative, got %d", o.ShortStringBand)
	}
	if o.ChunkMin < 1 {
		return fmt.Errorf("chunk_min must be at least 1, got %d", o.ChunkMin)
	}
	if o.ChunkMax < o.ChunkMin {
		return fmt.Errorf("chunk_max (%d) must not be less than chunk_min (%d)", o.ChunkMax, o.ChunkMin)
	}
	if o.ChunkQueryMultiplier < 1 {
		return fmt.Errorf("chunk_query_multiplier must be at least 1, got %d", o.ChunkQueryMultiplier)
	}
	if o.WindowPadRatio < 0 || o.WindowPadRatio > 1 {
		return fmt.Errorf("window_pad_ratio must be between 0 and 1, got %f", o.WindowPadRatio)
	}
	if o.MaxWindowTokens < 1 {
		return fmt.Errorf("max_window_tokens must be at least 1, got %d", o.MaxWindowTokens)
	}
	if o.MaxWindowQueryTokens < 1 {
		return fmt.Errorf("max_window_query_tokens must be at least 1, got %d", o.MaxWindowQueryTokens)
	}
	if o.TokenWeight < 0 || o.CharWeight < 0 {
		return fmt.Errorf("blend weights must be non-negative, got token=%f char=%f", o.TokenWeight, o.CharWeight)
	}
	if math.Abs(o.TokenWeight+o.CharWeight-1) > 1e-9 {
		return fmt.Errorf("blend weights must sum to 1, got %f", o.TokenWeight+o.CharWeight)
	}
	if o.RoundPrecision < 0 || o.RoundPrecision > 15 {
		return fmt.Errorf("round_precision must be between 0 and 15, got %d", o.RoundPrecision)
	}
	return nil
}
