package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nvandessel/fuzler/internal/store"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List saved dedup runs or show one run's candidates",
		Long: `List the dedup runs saved with "fuzler dedup --db", newest first.
With a run ID, print that run's candidate pairs.

Examples:
  fuzler runs --db runs.db
  fuzler runs 3f0c9a4e-... --db runs.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dbPath, _ := cmd.Flags().GetString("db")

			s, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open run store: %w", err)
			}
			defer s.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				candidates, err := s.Candidates(ctx, args[0])
				if errors.Is(err, store.ErrRunNotFound) {
					return fmt.Errorf("run %s not found", args[0])
				}
				if err != nil {
					return fmt.Errorf("failed to load candidates: %w", err)
				}

				if jsonOut {
					return json.NewEncoder(out).Encode(map[string]any{
						"run_id":     args[0],
						"candidates": candidates,
						"count":      len(candidates),
					})
				}
				if len(candidates) == 0 {
					fmt.Fprintln(out, "No candidates in this run.")
					return nil
				}
				for _, c := range candidates {
					fmt.Fprintf(out, "%.4f  %s <-> %s\n", c.Score, c.A.ID, c.B.ID)
					fmt.Fprintf(out, "        %s\n        %s\n", c.A.Text, c.B.Text)
				}
				return nil
			}

			runs, err := s.ListRuns(ctx)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"runs":  runs,
					"count": len(runs),
				})
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs saved.")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(out, "%s  %s  threshold=%.2f records=%d pairs=%d candidates=%d\n",
					r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Threshold, r.Total, r.Compared, r.Candidates)
			}
			return nil
		},
	}

	cmd.Flags().String("db", "", "SQLite database written by dedup --db")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}
