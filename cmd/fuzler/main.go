package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nvandessel/fuzler/internal/config"
	"github.com/nvandessel/fuzler/internal/guard"
	"github.com/nvandessel/fuzler/internal/logging"
	"github.com/nvandessel/fuzler/internal/pool"
	"github.com/nvandessel/fuzler/internal/similarity"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fuzler",
		Short: "Fuzzy similarity scoring for free-form text",
		Long: `fuzler scores how similar two pieces of text are, from 0.0 to 1.0.

Scores tolerate typos, extra surrounding words and reordered tokens. The same
scorer backs ranking, duplicate detection, an MCP server and a NATS service.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.fuzler/config.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newScoreCmd(),
		newRankCmd(),
		newDedupCmd(),
		newRunsCmd(),
		newServeCmd(),
		newMCPServerCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// scoringEnv is the configured scoring stack shared by the commands.
type scoringEnv struct {
	cfg       *config.FuzlerConfig
	logger    *slog.Logger
	decisions *logging.DecisionLogger
	scorer    *similarity.Scorer
	pool      *pool.Pool
}

// loadConfig reads --config when given, otherwise the default locations.
func loadConfig(cmd *cobra.Command) (*config.FuzlerConfig, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.FuzlerConfig
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newScoringEnv(cmd *cobra.Command) (*scoringEnv, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	scorer, err := similarity.NewScorer(cfg.Scoring)
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	decisions := logging.NewDecisionLogger(cfg.LogDir(), cfg.Logging.Level)

	g := guard.New(scorer,
		guard.WithTimeout(cfg.Guard.Timeout),
		guard.WithLogger(logger),
		guard.WithDecisionLogger(decisions),
		guard.WithMaxLoggedInput(cfg.Guard.MaxLoggedInput),
	)

	return &scoringEnv{
		cfg:       cfg,
		logger:    logger,
		decisions: decisions,
		scorer:    scorer,
		pool:      pool.New(g, cfg.Pool.Workers),
	}, nil
}

func (e *scoringEnv) Close() {
	e.decisions.Close()
}

// readLines returns the non-blank lines of r without trailing carriage returns.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return lines, nil
}
