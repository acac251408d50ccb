// Package pool scores batches of string pairs on a fixed set of worker
// goroutines, keeping CPU-bound comparisons off latency-sensitive callers.
package pool

import (
	"cmp"
	"context"
	"runtime"
	"slices"
	"sync"

	"github.com/nvandessel/fuzler/internal/guard"
)

// Pair is one comparison request.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Match is a ranked candidate.
type Match struct {
	// Index is the candidate's position in the input slice.
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Err   error   `json:"-"`
}

// Pool runs guarded comparisons concurrently.
type Pool struct {
	guard   *guard.Guard
	workers int
}

// New creates a pool of workers around g. workers <= 0 means runtime.NumCPU().
func New(g *guard.Guard, workers int) *Pool {
	if g == nil {
		g = guard.New(nil)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{guard: g, workers: workers}
}

// Workers returns the number of worker goroutines used per batch.
func (p *Pool) Workers() int {
	return p.workers
}

// Guard returns the guard every comparison runs through.
func (p *Pool) Guard() *guard.Guard {
	return p.guard
}

// Score runs a single guarded comparison on the calling goroutine.
func (p *Pool) Score(ctx context.Context, a, b string) guard.Result {
	return p.guard.Score(ctx, a, b)
}

// ScorePairs scores every pair and returns results in input order.
// Once ctx is done the remaining pairs fail fast with ctx.Err().
func (p *Pool) ScorePairs(ctx context.Context, pairs []Pair) []guard.Result {
	results := make([]guard.Result, len(pairs))
	if len(pairs) == 0 {
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for range min(p.workers, len(pairs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.guard.Score(ctx, pairs[i].A, pairs[i].B)
			}
		}()
	}

	for i := range pairs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// Rank scores query against every candidate and returns matches ordered by
// descending score. Equal scores keep their input order. limit <= 0 returns
// every candidate.
func (p *Pool) Rank(ctx context.Context, query string, candidates []string, limit int) []Match {
	pairs := make([]Pair, len(candidates))
	for i, c := range candidates {
		pairs[i] = Pair{A: query, B: c}
	}

	results := p.ScorePairs(ctx, pairs)

	matches := make([]Match, len(candidates))
	for i, r := range results {
		matches[i] = Match{Index: i, Text: candidates[i], Score: r.Score, Err: r.Err}
	}

	slices.SortStableFunc(matches, func(x, y Match) int {
		return cmp.Compare(y.Score, x.Score)
	})

	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches
}
