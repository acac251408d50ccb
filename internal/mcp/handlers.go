package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/fuzler/internal/constants"
	"github.com/nvandessel/fuzler/internal/dedup"
	"github.com/nvandessel/fuzler/internal/ratelimit"
	"github.com/nvandessel/fuzler/internal/sanitize"
)

// ScoringResourceURI publishes the active scoring options.
const ScoringResourceURI = "fuzler://config/scoring"

// registerTools registers all fuzler MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        constants.ToolScore,
		Description: "Score the fuzzy similarity of two strings from 0.0 (unrelated) to 1.0 (identical or contained)",
	}, s.handleScore)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        constants.ToolRank,
		Description: "Rank candidate strings by fuzzy similarity to a query",
	}, s.handleRank)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        constants.ToolDedup,
		Description: "Find likely duplicate pairs among a list of records",
	}, s.handleDedup)
}

// registerResources registers MCP resources.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         ScoringResourceURI,
		Name:        "fuzler-scoring-options",
		Description: "Thresholds and weights used by the similarity scorer.",
		MIMEType:    "application/json",
	}, s.handleScoringResource)
}

// handleScoringResource returns the scoring options as JSON.
func (s *Server) handleScoringResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	data, err := json.MarshalIndent(s.scoring, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode scoring options: %w", err)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      ScoringResourceURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}

// handleScore implements the fuzler_score tool.
// A fault inside the scorer is reported through Status, not as a tool error.
func (s *Server) handleScore(ctx context.Context, req *sdk.CallToolRequest, args ScoreInput) (_ *sdk.CallToolResult, _ ScoreOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(constants.ToolScore, start, retErr, sanitizeToolParams(map[string]any{
			"a": args.A, "b": args.B,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, constants.ToolScore); err != nil {
		return nil, ScoreOutput{}, err
	}

	r := s.pool.Score(ctx, args.A, args.B)
	return nil, ScoreOutput{Score: r.Score, Status: r.Status()}, nil
}

// handleRank implements the fuzler_rank tool.
func (s *Server) handleRank(ctx context.Context, req *sdk.CallToolRequest, args RankInput) (_ *sdk.CallToolResult, _ RankOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(constants.ToolRank, start, retErr, sanitizeToolParams(map[string]any{
			"query": args.Query, "candidates": args.Candidates, "limit": args.Limit,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, constants.ToolRank); err != nil {
		return nil, RankOutput{}, err
	}

	if len(args.Candidates) > constants.MaxRankCandidates {
		return nil, RankOutput{}, fmt.Errorf("too many candidates: %d exceeds limit of %d", len(args.Candidates), constants.MaxRankCandidates)
	}

	matches := s.pool.Rank(ctx, args.Query, args.Candidates, args.Limit)

	out := RankOutput{Matches: make([]RankedMatch, 0, len(matches))}
	for _, m := range matches {
		rm := RankedMatch{Index: m.Index, Text: m.Text, Score: m.Score}
		if m.Err != nil {
			rm.Error = m.Err.Error()
		}
		out.Matches = append(out.Matches, rm)
	}
	out.Count = len(out.Matches)

	return nil, out, nil
}

// handleDedup implements the fuzler_dedup tool.
func (s *Server) handleDedup(ctx context.Context, req *sdk.CallToolRequest, args DedupInput) (_ *sdk.CallToolResult, _ DedupOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(constants.ToolDedup, start, retErr, sanitizeToolParams(map[string]any{
			"records": args.Records, "threshold": args.Threshold,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, constants.ToolDedup); err != nil {
		return nil, DedupOutput{}, err
	}

	cfg := s.dedupConfig
	if cfg.Threshold == 0 {
		cfg.Threshold = constants.DefaultDedupThreshold
	}
	if args.Threshold != 0 {
		cfg.Threshold = args.Threshold
	}
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}

	records := make([]dedup.Record, len(args.Records))
	for i, r := range args.Records {
		id := sanitize.RecordID(r.ID)
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		records[i] = dedup.Record{ID: id, Text: r.Text}
	}

	report, err := dedup.FindCandidates(ctx, s.pool, records, cfg)
	if err != nil {
		return nil, DedupOutput{}, fmt.Errorf("deduplication failed: %w", err)
	}

	out := DedupOutput{
		Total:      report.Total,
		Compared:   report.Compared,
		Candidates: make([]DedupPair, 0, len(report.Candidates)),
		Clusters:   report.Clusters,
		Errors:     report.Errors,
	}
	for _, c := range report.Candidates {
		out.Candidates = append(out.Candidates, DedupPair{AID: c.A.ID, BID: c.B.ID, Score: c.Score})
	}

	if s.runs != nil {
		runID, err := s.runs.SaveRun(ctx, report, cfg.Threshold)
		if err != nil {
			return nil, DedupOutput{}, fmt.Errorf("failed to save dedup run: %w", err)
		}
		out.RunID = runID
	}

	out.Message = fmt.Sprintf("Found %d candidate pairs among %d records (%d pairs compared)",
		len(out.Candidates), out.Total, out.Compared)
	if len(out.Errors) > 0 {
		out.Message += fmt.Sprintf(", %d pairs failed", len(out.Errors))
	}

	return nil, out, nil
}
