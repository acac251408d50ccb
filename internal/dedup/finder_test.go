package dedup

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/nvandessel/fuzler/internal/guard"
	"github.com/nvandessel/fuzler/internal/logging"
	"github.com/nvandessel/fuzler/internal/pool"
	"github.com/nvandessel/fuzler/internal/similarity"
)

func sampleRecords() []Record {
	return []Record{
		{ID: "r1", Text: "always run tests before committing"},
		{ID: "r2", Text: "use structured logging in services"},
		{ID: "r3", Text: "always run tests before committing"},
		{ID: "r4", Text: "prefer table driven tests"},
		{ID: "r5", Text: "always run the tests before committing"},
	}
}

func TestFindCandidates(t *testing.T) {
	records := sampleRecords()
	cfg := DefaultConfig()
	cfg.Threshold = 0.8

	report, err := FindCandidates(context.Background(), pool.New(nil, 2), records, cfg)
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}

	if report.Total != 5 {
		t.Errorf("Total = %d, want 5", report.Total)
	}
	if report.Compared != 10 {
		t.Errorf("Compared = %d, want 10", report.Compared)
	}
	if len(report.Errors) != 0 {
		t.Errorf("unexpected errors: %v", report.Errors)
	}
	if len(report.Candidates) == 0 {
		t.Fatal("expected at least one candidate")
	}

	first := report.Candidates[0]
	if first.A.ID != "r1" || first.B.ID != "r3" || first.Score != 1.0 {
		t.Errorf("first candidate = %s/%s %v, want r1/r3 1.0", first.A.ID, first.B.ID, first.Score)
	}

	for i, c := range report.Candidates {
		if c.Score < cfg.Threshold {
			t.Errorf("candidate %d score %v below threshold", i, c.Score)
		}
		if i > 0 && c.Score > report.Candidates[i-1].Score {
			t.Errorf("candidates not sorted at %d", i)
		}
		if want := similarity.Similarity(c.A.Text, c.B.Text); c.Score != want {
			t.Errorf("candidate %d score %v, want %v", i, c.Score, want)
		}
	}

	wantCluster := [][]string{{"r1", "r3", "r5"}}
	if !reflect.DeepEqual(report.Clusters, wantCluster) {
		t.Errorf("Clusters = %v, want %v", report.Clusters, wantCluster)
	}
}

func TestFindCandidates_ThresholdOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 1.0

	report, err := FindCandidates(context.Background(), nil, sampleRecords(), cfg)
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}
	if len(report.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1 exact duplicate", len(report.Candidates))
	}
}

func TestFindCandidates_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		cfg     Config
		wantErr string
	}{
		{
			name:    "threshold above one",
			records: sampleRecords(),
			cfg:     Config{Threshold: 1.5},
			wantErr: "threshold",
		},
		{
			name:    "too many records",
			records: sampleRecords(),
			cfg:     Config{Threshold: 0.9, MaxRecords: 3},
			wantErr: "too many records",
		},
		{
			name:    "duplicate id",
			records: []Record{{ID: "x", Text: "a"}, {ID: "x", Text: "b"}},
			cfg:     DefaultConfig(),
			wantErr: "duplicate record id",
		},
		{
			name:    "empty id",
			records: []Record{{ID: "", Text: "a"}},
			cfg:     DefaultConfig(),
			wantErr: "empty id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FindCandidates(context.Background(), nil, tt.records, tt.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestFindCandidates_FaultsReported(t *testing.T) {
	g := guard.New(nil, guard.WithScoreFunc(func(a, b string) float64 {
		if strings.Contains(a, "poison") || strings.Contains(b, "poison") {
			panic("cannot score")
		}
		return similarity.Similarity(a, b)
	}))

	records := []Record{
		{ID: "a", Text: "same text"},
		{ID: "b", Text: "same text"},
		{ID: "c", Text: "poison pill"},
	}

	report, err := FindCandidates(context.Background(), pool.New(g, 1), records, DefaultConfig())
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}
	if len(report.Errors) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(report.Errors), report.Errors)
	}
	if len(report.Candidates) != 1 {
		t.Errorf("got %d candidates, want 1", len(report.Candidates))
	}
}

func TestFindCandidates_DecisionLog(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Decisions = logging.NewDecisionWriter(&buf)

	records := []Record{
		{ID: "a", Text: "identical"},
		{ID: "b", Text: "identical"},
	}
	if _, err := FindCandidates(context.Background(), nil, records, cfg); err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"event":"dedup_candidate"`) {
		t.Errorf("expected dedup_candidate event, got %q", buf.String())
	}
}

func TestFindCandidates_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := FindCandidates(ctx, nil, sampleRecords(), DefaultConfig())
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if report == nil || len(report.Errors) != report.Compared {
		t.Errorf("expected every pair to report the cancellation, got %+v", report)
	}
}

func TestFindCandidates_Empty(t *testing.T) {
	report, err := FindCandidates(context.Background(), nil, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}
	if report.Total != 0 || report.Compared != 0 || len(report.Candidates) != 0 {
		t.Errorf("unexpected report for no records: %+v", report)
	}
}

func TestClusters(t *testing.T) {
	records := []Record{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}

	tests := []struct {
		name       string
		candidates []Candidate
		want       [][]string
	}{
		{
			name:       "no candidates",
			candidates: nil,
			want:       nil,
		},
		{
			name: "transitive link",
			candidates: []Candidate{
				{A: Record{ID: "d"}, B: Record{ID: "e"}},
				{A: Record{ID: "a"}, B: Record{ID: "e"}},
			},
			want: [][]string{{"a", "d", "e"}},
		},
		{
			name: "two groups",
			candidates: []Candidate{
				{A: Record{ID: "c"}, B: Record{ID: "d"}},
				{A: Record{ID: "a"}, B: Record{ID: "b"}},
			},
			want: [][]string{{"a", "b"}, {"c", "d"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clusters(records, tt.candidates); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Clusters() = %v, want %v", got, tt.want)
			}
		})
	}
}
