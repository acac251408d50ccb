package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/fuzler/internal/guard"
	"github.com/nvandessel/fuzler/internal/natsrpc"
	"github.com/spf13/cobra"
)

type scoreResult struct {
	Score  float64 `json:"score"`
	Status string  `json:"status"`
	Error  string  `json:"error,omitempty"`
}

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <a> <b>",
		Short: "Score the similarity of two strings",
		Long: `Score how similar two strings are, from 0.0 (unrelated) to 1.0 (identical).

The shorter string is matched against every window of the longer one, so a
phrase embedded in a longer sentence still scores high.

Examples:
  fuzler score "new york city" "I live in new york city"
  fuzler score "recieve" "receive" --explain
  fuzler score "a" "b" --nats nats://127.0.0.1:4222`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			explain, _ := cmd.Flags().GetBool("explain")
			natsURL, _ := cmd.Flags().GetString("nats")

			if natsURL != "" {
				if explain {
					return fmt.Errorf("--explain cannot be combined with --nats")
				}
				return runRemoteScore(cmd, natsURL, args[0], args[1], jsonOut)
			}

			env, err := newScoringEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			if explain {
				b := env.scorer.Explain(args[0], args[1])
				if jsonOut {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(b)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "score:    %.4f\n", b.Score)
				fmt.Fprintf(out, "partial:  %.4f\n", b.Partial)
				fmt.Fprintf(out, "blended:  %.4f\n", b.Blended)
				fmt.Fprintf(out, "tokens:   query=%d target=%d swapped=%v\n", b.QueryTokens, b.TargetTokens, b.Swapped)
				return nil
			}

			r := env.pool.Score(cmd.Context(), args[0], args[1])
			res := scoreResult{Score: r.Score, Status: r.Status()}
			if r.Err != nil {
				res.Error = r.Err.Error()
			}
			return printScore(cmd, res, jsonOut)
		},
	}

	cmd.Flags().Bool("explain", false, "Show the intermediate scores")
	cmd.Flags().String("nats", "", "Score through a fuzler service at this NATS URL")

	return cmd
}

func runRemoteScore(cmd *cobra.Command, natsURL, a, b string, jsonOut bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	client, err := natsrpc.NewClient(natsURL, cfg.NATS.Subject)
	if err != nil {
		return err
	}
	defer client.Close()

	score, err := client.Score(cmd.Context(), a, b)
	res := scoreResult{Score: score, Status: guard.StatusOK}
	if err != nil {
		res.Status = "error"
		res.Error = err.Error()
	}
	return printScore(cmd, res, jsonOut)
}

// printScore writes res and returns an error when scoring faulted, so the
// process exits non-zero while still printing the default score.
func printScore(cmd *cobra.Command, res scoreResult, jsonOut bool) error {
	if jsonOut {
		if err := json.NewEncoder(cmd.OutOrStdout()).Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%.4f\n", res.Score)
	}

	if res.Status != guard.StatusOK {
		return fmt.Errorf("scoring %s: %s", res.Status, res.Error)
	}
	return nil
}
