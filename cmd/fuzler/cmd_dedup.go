package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nvandessel/fuzler/internal/dedup"
	"github.com/nvandessel/fuzler/internal/export"
	"github.com/nvandessel/fuzler/internal/sanitize"
	"github.com/nvandessel/fuzler/internal/store"
	"github.com/spf13/cobra"
)

type dedupResult struct {
	RunID     string        `json:"run_id,omitempty"`
	ArrowPath string        `json:"arrow_path,omitempty"`
	Threshold float64       `json:"threshold"`
	Report    *dedup.Report `json:"report"`
}

func newDedupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup <file>",
		Short: "Find likely duplicate lines in a file",
		Long: `Compare every pair of records in a file and report the pairs whose
similarity meets the threshold, grouped into clusters.

Each non-blank line is one record, either "id<TAB>text" or plain text. Plain
records are identified by their position. Use "-" to read stdin.

Examples:
  fuzler dedup notes.txt
  fuzler dedup notes.tsv --threshold 0.8 --db runs.db
  fuzler dedup notes.tsv --arrow candidates.arrow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dbPath, _ := cmd.Flags().GetString("db")
			arrowPath, _ := cmd.Flags().GetString("arrow")

			records, err := readRecordsFrom(cmd, args[0])
			if err != nil {
				return err
			}

			env, err := newScoringEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			threshold := env.cfg.Dedup.Threshold
			if cmd.Flags().Changed("threshold") {
				threshold, _ = cmd.Flags().GetFloat64("threshold")
			}

			ctx := cmd.Context()
			report, err := dedup.FindCandidates(ctx, env.pool, records, dedup.Config{
				Threshold:  threshold,
				MaxRecords: env.cfg.Dedup.MaxRecords,
				Logger:     env.logger,
				Decisions:  env.decisions,
			})
			if err != nil {
				return fmt.Errorf("dedup failed: %w", err)
			}

			result := dedupResult{Threshold: threshold, Report: report}

			if dbPath != "" {
				s, err := store.NewSQLiteStore(dbPath)
				if err != nil {
					return fmt.Errorf("failed to open run store: %w", err)
				}
				defer s.Close()

				result.RunID, err = s.SaveRun(ctx, report, threshold)
				if err != nil {
					return fmt.Errorf("failed to save run: %w", err)
				}
			}

			if arrowPath != "" {
				if err := writeArrowFile(arrowPath, report.Candidates); err != nil {
					return err
				}
				result.ArrowPath = arrowPath
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			printDedupResult(cmd.OutOrStdout(), result, dbPath)
			return nil
		},
	}

	cmd.Flags().Float64("threshold", 0, "Minimum similarity for a candidate pair (default from config)")
	cmd.Flags().String("db", "", "Save the run to this SQLite database")
	cmd.Flags().String("arrow", "", "Write the candidates to this Arrow IPC file")

	return cmd
}

func readRecordsFrom(cmd *cobra.Command, path string) ([]dedup.Record, error) {
	if path == "-" {
		return readRecords(cmd.InOrStdin())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open records: %w", err)
	}
	defer f.Close()

	return readRecords(f)
}

// readRecords parses one record per non-blank line. A line with a tab is
// "id<TAB>text"; an ID that sanitizes to nothing falls back to the position.
func readRecords(r io.Reader) ([]dedup.Record, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	records := make([]dedup.Record, len(lines))
	for i, line := range lines {
		id, text, found := strings.Cut(line, "\t")
		if found {
			id = sanitize.RecordID(strings.TrimSpace(id))
		} else {
			id, text = "", line
		}
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		records[i] = dedup.Record{ID: id, Text: text}
	}
	return records, nil
}

func writeArrowFile(path string, candidates []dedup.Candidate) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create arrow file: %w", err)
	}
	if err := export.WriteCandidatesArrow(f, candidates); err != nil {
		f.Close()
		return fmt.Errorf("failed to write arrow file: %w", err)
	}
	return f.Close()
}

func printDedupResult(out io.Writer, result dedupResult, dbPath string) {
	report := result.Report
	fmt.Fprintf(out, "Analyzed %d records (%d pairs), found %d candidates at threshold %.2f\n",
		report.Total, report.Compared, len(report.Candidates), result.Threshold)

	if len(report.Candidates) > 0 {
		fmt.Fprintln(out)
		for _, c := range report.Candidates {
			fmt.Fprintf(out, "  %.4f  %s <-> %s\n", c.Score, c.A.ID, c.B.ID)
		}
	}

	if len(report.Clusters) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Clusters:")
		for _, cluster := range report.Clusters {
			fmt.Fprintf(out, "  %s\n", strings.Join(cluster, ", "))
		}
	}

	if len(report.Errors) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Errors (%d):\n", len(report.Errors))
		for _, e := range report.Errors {
			fmt.Fprintf(out, "  %s\n", e)
		}
	}

	if result.RunID != "" {
		fmt.Fprintf(out, "\nSaved run %s to %s\n", result.RunID, dbPath)
	}
	if result.ArrowPath != "" {
		fmt.Fprintf(out, "Wrote candidates to %s\n", result.ArrowPath)
	}
}
