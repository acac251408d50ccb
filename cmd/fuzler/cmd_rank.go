package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/nvandessel/fuzler/internal/constants"
	"github.com/nvandessel/fuzler/internal/pool"
	"github.com/spf13/cobra"
)

func newRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank <query> [candidate...]",
		Short: "Rank candidates by similarity to a query",
		Long: `Score every candidate against the query and print them best first.

Candidates come from the arguments, or from stdin one per line when no
candidate arguments are given.

Examples:
  fuzler rank "error handling" "error handler" "logging setup"
  git log --format=%s | fuzler rank "fix race" --limit 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			query := args[0]
			candidates := args[1:]
			if len(candidates) == 0 {
				in := cmd.InOrStdin()
				if f, ok := in.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
					return fmt.Errorf("no candidates: pass them as arguments or pipe them one per line")
				}
				lines, err := readLines(in)
				if err != nil {
					return err
				}
				candidates = lines
			}
			if len(candidates) > constants.MaxRankCandidates {
				return fmt.Errorf("too many candidates: %d (max %d)", len(candidates), constants.MaxRankCandidates)
			}

			env, err := newScoringEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			matches := env.pool.Rank(cmd.Context(), query, candidates, limit)

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"query":   query,
					"matches": matches,
					"count":   len(matches),
				})
			}
			printMatches(cmd, matches)
			return nil
		},
	}

	cmd.Flags().Int("limit", 10, "Maximum number of matches to show (0 for all)")

	return cmd
}

func printMatches(cmd *cobra.Command, matches []pool.Match) {
	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, "No candidates.")
		return
	}
	for i, m := range matches {
		fmt.Fprintf(out, "%3d. %.4f  %s", i+1, m.Score, m.Text)
		if m.Err != nil {
			fmt.Fprintf(out, "  (%v)", m.Err)
		}
		fmt.Fprintln(out)
	}
}
