// Package mcp provides an MCP (Model Context Protocol) server exposing the
// fuzler similarity scorer as tools.
package mcp

// ScoreInput defines the input for the fuzler_score tool.
type ScoreInput struct {
	A string `json:"a" jsonschema:"first string to compare"`
	B string `json:"b" jsonschema:"second string to compare"`
}

// ScoreOutput defines the output for the fuzler_score tool.
type ScoreOutput struct {
	Score  float64 `json:"score" jsonschema:"similarity between 0.0 and 1.0 rounded to two decimals"`
	Status string  `json:"status" jsonschema:"ok, panic, timeout or canceled; failures report the default score"`
}

// RankInput defines the input for the fuzler_rank tool.
type RankInput struct {
	Query      string   `json:"query" jsonschema:"text to search for"`
	Candidates []string `json:"candidates" jsonschema:"texts to rank against the query"`
	Limit      int      `json:"limit,omitempty" jsonschema:"maximum number of matches to return (default: all)"`
}

// RankOutput defines the output for the fuzler_rank tool.
type RankOutput struct {
	Matches []RankedMatch `json:"matches" jsonschema:"candidates ordered by descending score"`
	Count   int           `json:"count" jsonschema:"number of matches returned"`
}

// RankedMatch is one entry of a ranking.
type RankedMatch struct {
	Index int     `json:"index" jsonschema:"position of the candidate in the input list"`
	Text  string  `json:"text" jsonschema:"candidate text"`
	Score float64 `json:"score" jsonschema:"similarity to the query"`
	Error string  `json:"error,omitempty" jsonschema:"fault message if scoring failed"`
}

// DedupInput defines the input for the fuzler_dedup tool.
type DedupInput struct {
	Records   []DedupRecord `json:"records" jsonschema:"records to compare pairwise"`
	Threshold float64       `json:"threshold,omitempty" jsonschema:"minimum score for a candidate pair (0.0-1.0, default: 0.9)"`
}

// DedupRecord is one record to deduplicate.
type DedupRecord struct {
	ID   string `json:"id,omitempty" jsonschema:"record identifier (default: 1-based position)"`
	Text string `json:"text" jsonschema:"record text"`
}

// DedupOutput defines the output for the fuzler_dedup tool.
type DedupOutput struct {
	RunID      string      `json:"run_id,omitempty" jsonschema:"stored run identifier when a run store is configured"`
	Total      int         `json:"total" jsonschema:"number of records analyzed"`
	Compared   int         `json:"compared" jsonschema:"number of pairs scored"`
	Candidates []DedupPair `json:"candidates" jsonschema:"pairs at or above the threshold, highest score first"`
	Clusters   [][]string  `json:"clusters,omitempty" jsonschema:"groups of record IDs linked by candidate pairs"`
	Errors     []string    `json:"errors,omitempty" jsonschema:"per-pair faults"`
	Message    string      `json:"message" jsonschema:"human-readable summary"`
}

// DedupPair is a candidate pair.
type DedupPair struct {
	AID   string  `json:"a_id"`
	BID   string  `json:"b_id"`
	Score float64 `json:"score"`
}
