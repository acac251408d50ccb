// Package dedup finds likely duplicate records in a batch by scoring every
// unordered pair with the fuzzy similarity scorer.
package dedup

import (
	"log/slog"

	"github.com/nvandessel/fuzler/internal/constants"
	"github.com/nvandessel/fuzler/internal/logging"
)

// Record is one text item to compare.
type Record struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Candidate is a pair of records whose similarity meets the threshold.
type Candidate struct {
	A Record `json:"a" yaml:"a"`
	B Record `json:"b" yaml:"b"`

	// Score is the similarity between 0.0 and 1.0.
	Score float64 `json:"score" yaml:"score"`
}

// Report contains the results of a duplicate detection run.
type Report struct {
	// Total is the number of records analyzed.
	Total int `json:"total" yaml:"total"`

	// Compared is the number of pairs scored.
	Compared int `json:"compared" yaml:"compared"`

	// Candidates are the pairs at or above the threshold, highest score first.
	Candidates []Candidate `json:"candidates" yaml:"candidates"`

	// Clusters groups record IDs connected by candidate pairs.
	// Only clusters with two or more records are listed.
	Clusters [][]string `json:"clusters,omitempty" yaml:"clusters,omitempty"`

	// Errors contains any per-pair faults encountered during processing.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Config configures duplicate detection.
type Config struct {
	// Threshold is the minimum similarity score for a pair to be reported.
	// Range: 0.0 to 1.0, default: 0.9
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// MaxRecords limits the number of records in one run.
	// Use 0 for no limit.
	MaxRecords int `json:"max_records,omitempty" yaml:"max_records,omitempty"`

	// Logger receives progress records. Nil discards them.
	Logger *slog.Logger `json:"-" yaml:"-"`

	// Decisions receives one event per reported candidate. Nil disables it.
	Decisions *logging.DecisionLogger `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:  constants.DefaultDedupThreshold,
		MaxRecords: constants.DefaultMaxDedupRecords,
	}
}
