// Package store persists duplicate detection runs so their candidates can be
// reviewed after the run. The scorer itself keeps no state.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/fuzler/internal/dedup"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run summarizes a stored duplicate detection run.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Threshold  float64   `json:"threshold" yaml:"threshold"`
	Total      int       `json:"total" yaml:"total"`
	Compared   int       `json:"compared" yaml:"compared"`
	Candidates int       `json:"candidates" yaml:"candidates"`
}

// RunStore defines the interface for storing and querying dedup runs.
type RunStore interface {
	// SaveRun stores report and returns the new run's ID.
	SaveRun(ctx context.Context, report *dedup.Report, threshold float64) (string, error)

	// ListRuns returns all runs, newest first.
	ListRuns(ctx context.Context) ([]Run, error)

	// Candidates returns a run's candidates in the order they were reported.
	Candidates(ctx context.Context, runID string) ([]dedup.Candidate, error)

	// Close releases resources.
	Close() error
}
