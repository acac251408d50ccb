package dedup

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/nvandessel/fuzler/internal/logging"
	"github.com/nvandessel/fuzler/internal/pool"
)

// FindCandidates scores every unordered pair of records once and reports the
// pairs whose score is at least cfg.Threshold. A pair that faults is listed
// in Report.Errors and does not stop the run.
func FindCandidates(ctx context.Context, p *pool.Pool, records []Record, cfg Config) (*Report, error) {
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("threshold must be between 0 and 1, got %f", cfg.Threshold)
	}
	if cfg.MaxRecords > 0 && len(records) > cfg.MaxRecords {
		return nil, fmt.Errorf("too many records: %d exceeds limit of %d", len(records), cfg.MaxRecords)
	}

	seen := make(map[string]bool, len(records))
	for i, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("record %d has an empty id", i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate record id %q", r.ID)
		}
		seen[r.ID] = true
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if p == nil {
		p = pool.New(nil, 0)
	}

	type index struct{ i, j int }
	n := len(records)
	pairs := make([]pool.Pair, 0, n*(n-1)/2)
	indexes := make([]index, 0, cap(pairs))
	for i := range n {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, pool.Pair{A: records[i].Text, B: records[j].Text})
			indexes = append(indexes, index{i, j})
		}
	}

	logger.Debug("dedup scoring pairs", "records", n, "pairs", len(pairs), "workers", p.Workers())

	report := &Report{
		Total:      n,
		Compared:   len(pairs),
		Candidates: make([]Candidate, 0),
	}

	results := p.ScorePairs(ctx, pairs)
	for k, r := range results {
		a, b := records[indexes[k].i], records[indexes[k].j]
		if r.Err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s/%s: %v", a.ID, b.ID, r.Err))
			continue
		}
		if r.Score < cfg.Threshold {
			continue
		}
		report.Candidates = append(report.Candidates, Candidate{A: a, B: b, Score: r.Score})
		cfg.Decisions.Log(map[string]any{
			"event": "dedup_candidate",
			"a_id":  a.ID,
			"b_id":  b.ID,
			"score": r.Score,
		})
	}

	// Pairs were generated in record order, so a stable sort keeps that
	// order among equal scores.
	slices.SortStableFunc(report.Candidates, func(x, y Candidate) int {
		return cmp.Compare(y.Score, x.Score)
	})
	report.Clusters = Clusters(records, report.Candidates)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("dedup interrupted: %w", err)
	}

	logger.Info("dedup complete",
		"records", report.Total,
		"compared", report.Compared,
		"candidates", len(report.Candidates),
		"errors", len(report.Errors),
	)

	return report, nil
}

// Clusters groups record IDs that are linked, directly or transitively, by
// candidate pairs. Clusters and their members follow record order.
func Clusters(records []Record, candidates []Candidate) [][]string {
	parent := make(map[string]string, len(records))
	var find func(string) string
	find = func(id string) string {
		p, ok := parent[id]
		if !ok || p == id {
			return id
		}
		root := find(p)
		parent[id] = root
		return root
	}

	for _, c := range candidates {
		ra, rb := find(c.A.ID), find(c.B.ID)
		if ra != rb {
			parent[rb] = ra
		}
	}

	groups := make(map[string][]string)
	var roots []string
	for _, r := range records {
		root := find(r.ID)
		if _, ok := groups[root]; !ok {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], r.ID)
	}

	var clusters [][]string
	for _, root := range roots {
		if len(groups[root]) > 1 {
			clusters = append(clusters, groups[root])
		}
	}
	return clusters
}
