package mcp

import (
	"context"
	"fmt"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/fuzler/internal/dedup"
	"github.com/nvandessel/fuzler/internal/logging"
	"github.com/nvandessel/fuzler/internal/pool"
	"github.com/nvandessel/fuzler/internal/ratelimit"
	"github.com/nvandessel/fuzler/internal/similarity"
	"github.com/nvandessel/fuzler/internal/store"
)

// Server wraps the MCP SDK server and exposes the scorer as tools.
type Server struct {
	server       *sdk.Server
	pool         *pool.Pool
	scoring      similarity.Options
	dedupConfig  dedup.Config
	runs         store.RunStore
	logger       *slog.Logger
	auditLogger  *AuditLogger
	toolLimiters ratelimit.ToolLimiters
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "fuzler")
	Version string // Server version

	// Pool runs every comparison. Nil means a default pool.
	Pool *pool.Pool

	// Scoring is published through the fuzler://config/scoring resource.
	Scoring similarity.Options

	// Dedup supplies the default threshold and record limit.
	Dedup dedup.Config

	// Runs stores dedup runs when set.
	Runs store.RunStore

	// Logger receives operational records. Nil discards them.
	Logger *slog.Logger

	// AuditDir is where audit.jsonl is written. Empty disables auditing.
	AuditDir string
}

// NewServer creates a new MCP server with the fuzler tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is nil")
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	p := cfg.Pool
	if p == nil {
		p = pool.New(nil, 0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		server:       mcpServer,
		pool:         p,
		scoring:      cfg.Scoring,
		dedupConfig:  cfg.Dedup,
		runs:         cfg.Runs,
		logger:       logger,
		toolLimiters: ratelimit.NewToolLimiters(),
	}
	if cfg.AuditDir != "" {
		s.auditLogger = NewAuditLogger(cfg.AuditDir)
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := withShutdownSignals(ctx)
	defer stop()

	s.logger.Info("mcp server starting", "transport", "stdio")
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.Close()

	return err
}

// Close releases the audit log. The run store belongs to the caller.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
