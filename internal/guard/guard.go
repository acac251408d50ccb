// Package guard runs similarity computations behind a fault boundary.
//
// A comparison that panics, misses its deadline, or is cancelled yields the
// default score and a descriptive error instead of taking the host down.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/nvandessel/fuzler/internal/constants"
	"github.com/nvandessel/fuzler/internal/logging"
	"github.com/nvandessel/fuzler/internal/sanitize"
	"github.com/nvandessel/fuzler/internal/similarity"
)

var (
	// ErrPanic reports that the computation panicked.
	ErrPanic = errors.New("similarity computation panicked")

	// ErrTimeout reports that the computation did not finish within the
	// guard's timeout.
	ErrTimeout = errors.New("similarity computation timed out")
)

// Status values reported by Result.Status.
const (
	StatusOK       = "ok"
	StatusPanic    = "panic"
	StatusTimeout  = "timeout"
	StatusCanceled = "canceled"
)

// ScoreFunc computes a similarity score.
type ScoreFunc func(a, b string) float64

// Result is the outcome of a guarded comparison.
type Result struct {
	Score    float64
	Err      error
	Duration time.Duration
}

// Status classifies the result for callers that report it over a wire.
func (r Result) Status() string {
	switch {
	case r.Err == nil:
		return StatusOK
	case errors.Is(r.Err, ErrPanic):
		return StatusPanic
	case errors.Is(r.Err, ErrTimeout):
		return StatusTimeout
	default:
		return StatusCanceled
	}
}

// Guard wraps a ScoreFunc with panic recovery and an optional timeout.
// A Guard is safe for concurrent use.
type Guard struct {
	score        ScoreFunc
	logger       *slog.Logger
	decisions    *logging.DecisionLogger
	timeout      time.Duration
	defaultScore float64
	maxLogged    int
}

// Option configures a Guard.
type Option func(*Guard)

// WithTimeout bounds each comparison. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Guard) {
		if d >= 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithDecisionLogger records every comparison as a JSONL decision event.
func WithDecisionLogger(dl *logging.DecisionLogger) Option {
	return func(g *Guard) {
		g.decisions = dl
	}
}

// WithDefaultScore sets the score returned when a comparison fails.
func WithDefaultScore(s float64) Option {
	return func(g *Guard) {
		g.defaultScore = s
	}
}

// WithMaxLoggedInput sets how many bytes of each input appear in fault records.
func WithMaxLoggedInput(n int) Option {
	return func(g *Guard) {
		if n > 0 {
			g.maxLogged = n
		}
	}
}

// WithScoreFunc replaces the scoring function.
func WithScoreFunc(f ScoreFunc) Option {
	return func(g *Guard) {
		if f != nil {
			g.score = f
		}
	}
}

// New creates a Guard around scorer. A nil scorer means similarity.Default().
func New(scorer *similarity.Scorer, opts ...Option) *Guard {
	if scorer == nil {
		scorer = similarity.Default()
	}
	g := &Guard{
		score:        scorer.Similarity,
		logger:       logging.Discard(),
		defaultScore: constants.DefaultFaultScore,
		maxLogged:    constants.MaxLoggedInputLen,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Timeout returns the configured per-comparison timeout.
func (g *Guard) Timeout() time.Duration {
	return g.timeout
}

type outcome struct {
	score    float64
	panicked bool
	value    any
	stack    []byte
}

// Score compares a and b.
//
// When neither ctx nor the guard can expire, the computation runs on the
// calling goroutine. Otherwise it runs on its own goroutine and races the
// deadline; a computation that loses the race is left to finish and its
// result is discarded.
func (g *Guard) Score(ctx context.Context, a, b string) Result {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return g.fail(a, b, err, start)
	}

	if ctx.Done() == nil && g.timeout <= 0 {
		return g.finish(a, b, g.run(a, b), start)
	}

	parent := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		done <- g.run(a, b)
	}()

	select {
	case o := <-done:
		return g.finish(a, b, o, start)
	case <-ctx.Done():
		if err := parent.Err(); err != nil {
			return g.fail(a, b, err, start)
		}
		return g.fail(a, b, fmt.Errorf("%w after %v", ErrTimeout, g.timeout), start)
	}
}

// run invokes the score function and converts a panic into an outcome.
func (g *Guard) run(a, b string) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{panicked: true, value: r, stack: debug.Stack()}
		}
	}()
	return outcome{score: g.score(a, b)}
}

func (g *Guard) finish(a, b string, o outcome, start time.Time) Result {
	if o.panicked {
		g.logger.Debug("similarity panic stack", "stack", string(o.stack))
		return g.fail(a, b, fmt.Errorf("%w: %v", ErrPanic, o.value), start)
	}

	elapsed := time.Since(start)
	g.decisions.Log(map[string]any{
		"event":       "score_computed",
		"a_len":       len(a),
		"b_len":       len(b),
		"score":       o.score,
		"duration_ms": elapsed.Milliseconds(),
	})
	return Result{Score: o.score, Duration: elapsed}
}

func (g *Guard) fail(a, b string, err error, start time.Time) Result {
	elapsed := time.Since(start)
	la, lb := sanitize.ForLog(a, g.maxLogged), sanitize.ForLog(b, g.maxLogged)

	g.logger.Error("similarity computation failed",
		"error", err,
		"a", la,
		"b", lb,
		"duration", elapsed,
	)
	g.decisions.Log(map[string]any{
		"event":       "score_fault",
		"error":       err.Error(),
		"a":           la,
		"b":           lb,
		"duration_ms": elapsed.Milliseconds(),
	})
	return Result{Score: g.defaultScore, Err: err, Duration: elapsed}
}
