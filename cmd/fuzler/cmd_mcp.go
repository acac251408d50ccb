package main

import (
	"fmt"

	"github.com/nvandessel/fuzler/internal/dedup"
	"github.com/nvandessel/fuzler/internal/mcp"
	"github.com/nvandessel/fuzler/internal/store"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run fuzler as an MCP server over stdio",
		Long: `Run fuzler as a Model Context Protocol server over stdin/stdout.

Tools: fuzler_score, fuzler_rank, fuzler_dedup.
Resource: fuzler://config/scoring.

Tool calls are recorded in audit.jsonl under the log directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newScoringEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			cfg := &mcp.Config{
				Name:    "fuzler",
				Version: version,
				Pool:    env.pool,
				Scoring: env.cfg.Scoring,
				Dedup: dedup.Config{
					Threshold:  env.cfg.Dedup.Threshold,
					MaxRecords: env.cfg.Dedup.MaxRecords,
					Logger:     env.logger,
					Decisions:  env.decisions,
				},
				Logger:   env.logger,
				AuditDir: env.cfg.LogDir(),
			}

			dbPath, _ := cmd.Flags().GetString("db")
			if dbPath != "" {
				s, err := store.NewSQLiteStore(dbPath)
				if err != nil {
					return fmt.Errorf("failed to open run store: %w", err)
				}
				defer s.Close()
				cfg.Runs = s
			}

			server, err := mcp.NewServer(cfg)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().String("db", "", "Save fuzler_dedup runs to this SQLite database")

	return cmd
}
