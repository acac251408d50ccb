package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/fuzler/internal/dedup"
	"github.com/nvandessel/fuzler/internal/export"
	"github.com/nvandessel/fuzler/internal/similarity"
)

// isolateHome sets HOME to a temp directory to avoid touching real ~/.fuzler/
func isolateHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	rootCmd := newRootCmd()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	rootCmd := newRootCmd()

	want := []string{"version", "score", "rank", "dedup", "runs", "serve", "mcp-server", "config"}
	for _, name := range want {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}

	for _, flag := range []string{"json", "config"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	isolateHome(t)

	out, err := runCmd(t, "", "version", "--json")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got["version"] != version {
		t.Errorf("version = %q, want %q", got["version"], version)
	}
}

func TestScoreCmd(t *testing.T) {
	isolateHome(t)

	tests := []struct {
		name string
		a    string
		b    string
		want string
	}{
		{"identical", "hello world", "hello world", "1.0000"},
		{"embedded phrase", "new york city", "I live in new york city", "1.0000"},
		{"empty against text", "", "text", "0.0000"},
		{"both empty", "", "", "1.0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, "", "score", tt.a, tt.b)
			if err != nil {
				t.Fatalf("score failed: %v", err)
			}
			if got := strings.TrimSpace(out); got != tt.want {
				t.Errorf("score %q %q = %s, want %s", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestScoreCmd_JSON(t *testing.T) {
	isolateHome(t)

	out, err := runCmd(t, "", "score", "kitten", "sitting", "--json")
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}

	var got scoreResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if want := similarity.Similarity("kitten", "sitting"); got.Score != want {
		t.Errorf("score = %v, want %v", got.Score, want)
	}
	if got.Status != "ok" {
		t.Errorf("status = %q, want ok", got.Status)
	}
}

func TestScoreCmd_Explain(t *testing.T) {
	isolateHome(t)

	out, err := runCmd(t, "", "score", "long sentence with the phrase inside", "the phrase", "--explain", "--json")
	if err != nil {
		t.Fatalf("score --explain failed: %v", err)
	}

	var got similarity.Breakdown
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if !got.Swapped {
		t.Error("expected the shorter second argument to become the query")
	}
	if got.QueryTokens != 2 {
		t.Errorf("query tokens = %d, want 2", got.QueryTokens)
	}
	if got.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", got.Score)
	}
}

func TestScoreCmd_ExplainWithNATS(t *testing.T) {
	isolateHome(t)

	if _, err := runCmd(t, "", "score", "a", "b", "--explain", "--nats", "nats://127.0.0.1:1"); err == nil {
		t.Error("expected error combining --explain and --nats")
	}
}

func TestScoreCmd_Args(t *testing.T) {
	isolateHome(t)

	if _, err := runCmd(t, "", "score", "only-one"); err == nil {
		t.Error("expected error with one argument")
	}
}

func TestScoreCmd_ConfigFile(t *testing.T) {
	isolateHome(t)

	path := filepath.Join(t.TempDir(), "fuzler.yaml")
	if err := os.WriteFile(path, []byte("scoring:\n  case_insensitive: true\n"), 0600); err != nil {
		t.Fatal(err)
	}

	opts := similarity.DefaultOptions()
	opts.CaseInsensitive = true
	scorer, err := similarity.NewScorer(opts)
	if err != nil {
		t.Fatal(err)
	}
	want := scorer.Similarity("Hello World", "hello world")
	if want == similarity.Similarity("Hello World", "hello world") {
		t.Fatal("case-insensitive scoring should differ from the default")
	}

	out, err := runCmd(t, "", "score", "Hello World", "hello world", "--config", path)
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if got := strings.TrimSpace(out); got != fmt.Sprintf("%.4f", want) {
		t.Errorf("case-insensitive score = %s, want %.4f", got, want)
	}
}

func TestScoreCmd_InvalidConfig(t *testing.T) {
	isolateHome(t)

	path := filepath.Join(t.TempDir(), "fuzler.yaml")
	if err := os.WriteFile(path, []byte("dedup:\n  threshold: 3\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := runCmd(t, "", "score", "a", "b", "--config", path); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestRankCmd(t *testing.T) {
	isolateHome(t)

	tests := []struct {
		name      string
		stdin     string
		args      []string
		wantCount int
		wantTop   string
	}{
		{
			name:      "arguments",
			args:      []string{"rank", "error handling", "logging setup", "error handling", "error handler"},
			wantCount: 3,
			wantTop:   "error handling",
		},
		{
			name:      "stdin",
			stdin:     "logging setup\n\nerror handling\r\nerror handler\n",
			args:      []string{"rank", "error handling"},
			wantCount: 3,
			wantTop:   "error handling",
		},
		{
			name:      "limit",
			args:      []string{"rank", "error handling", "logging setup", "error handling", "error handler", "--limit", "1"},
			wantCount: 1,
			wantTop:   "error handling",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, tt.stdin, append(tt.args, "--json")...)
			if err != nil {
				t.Fatalf("rank failed: %v", err)
			}

			var got struct {
				Matches []struct {
					Index int     `json:"index"`
					Text  string  `json:"text"`
					Score float64 `json:"score"`
				} `json:"matches"`
				Count int `json:"count"`
			}
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("invalid JSON %q: %v", out, err)
			}
			if got.Count != tt.wantCount || len(got.Matches) != tt.wantCount {
				t.Fatalf("count = %d, want %d", got.Count, tt.wantCount)
			}
			if got.Matches[0].Text != tt.wantTop || got.Matches[0].Score != 1.0 {
				t.Errorf("top match = %+v, want %q with score 1.0", got.Matches[0], tt.wantTop)
			}
			if got.Matches[0].Index != 1 {
				t.Errorf("top index = %d, want 1", got.Matches[0].Index)
			}
		})
	}
}

func TestRankCmd_Text(t *testing.T) {
	isolateHome(t)

	out, err := runCmd(t, "", "rank", "cat", "cat", "dog")
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if !strings.Contains(out, "  1. 1.0000  cat") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestReadRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []dedup.Record
	}{
		{
			name:  "empty",
			input: "",
			want:  []dedup.Record{},
		},
		{
			name:  "tab separated",
			input: "a1\tfirst note\nb 2\tsecond note\n",
			want:  []dedup.Record{{ID: "a1", Text: "first note"}, {ID: "b2", Text: "second note"}},
		},
		{
			name:  "plain lines use position",
			input: "first note\n\nsecond note\n",
			want:  []dedup.Record{{ID: "1", Text: "first note"}, {ID: "2", Text: "second note"}},
		},
		{
			name:  "unusable id falls back to position",
			input: "x\tkept\n!!!\tsecond\n",
			want:  []dedup.Record{{ID: "x", Text: "kept"}, {ID: "2", Text: "second"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readRecords(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("readRecords() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("readRecords() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("record[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

const dedupInput = "r1\tthe quick brown fox jumps over the lazy dog\n" +
	"r2\tcompletely unrelated sentence about databases\n" +
	"r3\tthe quick brown fox jumps over the lazy dog\n"

func TestDedupCmd(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()

	input := filepath.Join(dir, "records.tsv")
	if err := os.WriteFile(input, []byte(dedupInput), 0600); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "runs.db")
	arrowPath := filepath.Join(dir, "candidates.arrow")

	out, err := runCmd(t, "", "dedup", input, "--db", dbPath, "--arrow", arrowPath, "--json")
	if err != nil {
		t.Fatalf("dedup failed: %v", err)
	}

	var got dedupResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got.RunID == "" {
		t.Error("expected a run ID")
	}
	if got.Threshold != 0.9 {
		t.Errorf("threshold = %v, want config default 0.9", got.Threshold)
	}
	report := got.Report
	if report.Total != 3 || report.Compared != 3 {
		t.Errorf("total/compared = %d/%d, want 3/3", report.Total, report.Compared)
	}
	if len(report.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(report.Candidates))
	}
	if c := report.Candidates[0]; c.A.ID != "r1" || c.B.ID != "r3" || c.Score != 1.0 {
		t.Errorf("candidate = %+v, want r1/r3 at 1.0", c)
	}
	if len(report.Clusters) != 1 || strings.Join(report.Clusters[0], ",") != "r1,r3" {
		t.Errorf("clusters = %v, want [[r1 r3]]", report.Clusters)
	}

	f, err := os.Open(arrowPath)
	if err != nil {
		t.Fatalf("open arrow file: %v", err)
	}
	defer f.Close()
	exported, err := export.ReadCandidatesArrow(f)
	if err != nil {
		t.Fatalf("ReadCandidatesArrow failed: %v", err)
	}
	if len(exported) != 1 || exported[0] != report.Candidates[0] {
		t.Errorf("exported = %+v, want %+v", exported, report.Candidates)
	}

	// The saved run is listed and its candidates can be shown.
	out, err = runCmd(t, "", "runs", "--db", dbPath, "--json")
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	var listed struct {
		Runs []struct {
			ID         string `json:"id"`
			Candidates int    `json:"candidates"`
		} `json:"runs"`
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(listed.Runs) != 1 || listed.Runs[0].ID != got.RunID || listed.Runs[0].Candidates != 1 {
		t.Errorf("runs = %+v, want the saved run", listed.Runs)
	}

	out, err = runCmd(t, "", "runs", got.RunID, "--db", dbPath)
	if err != nil {
		t.Fatalf("runs <id> failed: %v", err)
	}
	if !strings.Contains(out, "1.0000  r1 <-> r3") {
		t.Errorf("unexpected run output:\n%s", out)
	}
}

func TestDedupCmd_StdinAndThreshold(t *testing.T) {
	isolateHome(t)

	out, err := runCmd(t, dedupInput, "dedup", "-", "--threshold", "0")
	if err != nil {
		t.Fatalf("dedup failed: %v", err)
	}
	if !strings.Contains(out, "Analyzed 3 records (3 pairs), found 3 candidates at threshold 0.00") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "r1, r2, r3") {
		t.Errorf("expected one cluster of all records:\n%s", out)
	}
}

func TestDedupCmd_InvalidThreshold(t *testing.T) {
	isolateHome(t)

	if _, err := runCmd(t, dedupInput, "dedup", "-", "--threshold", "1.5"); err == nil {
		t.Error("expected error for threshold above 1")
	}
}

func TestDedupCmd_MissingFile(t *testing.T) {
	isolateHome(t)

	if _, err := runCmd(t, "", "dedup", filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRunsCmd(t *testing.T) {
	isolateHome(t)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	out, err := runCmd(t, "", "runs", "--db", dbPath)
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	if !strings.Contains(out, "No runs saved.") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := runCmd(t, "", "runs", "no-such-run", "--db", dbPath); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("runs <unknown> error = %v, want not found", err)
	}

	if _, err := runCmd(t, "", "runs"); err == nil {
		t.Error("expected error without --db")
	}
}

func TestConfigCmd(t *testing.T) {
	isolateHome(t)

	out, err := runCmd(t, "", "config")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	for _, want := range []string{"scoring:", "token_weight: 0.7", "threshold: 0.9", "subject: fuzler.score"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCmd_TOML(t *testing.T) {
	isolateHome(t)

	path := filepath.Join(t.TempDir(), "fuzler.toml")
	if err := os.WriteFile(path, []byte("[dedup]\nthreshold = 0.75\n"), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "", "config", "--config", path, "--json")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}

	var got struct {
		Dedup struct {
			Threshold float64 `json:"threshold"`
		} `json:"dedup"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got.Dedup.Threshold != 0.75 {
		t.Errorf("dedup.threshold = %v, want 0.75", got.Dedup.Threshold)
	}
}
