// Package constants provides named constants used throughout the fuzler codebase.
// This centralizes scoring thresholds so they can be tuned without touching
// algorithm code.
package constants

// Character metric constants
const (
	// HammingWindow is the largest byte-length difference for which the
	// character metric takes the positional (Hamming) fast path.
	HammingWindow = 2

	// ShortStringBand is the minimum edit distance band. Strings longer than
	// this use their own maximum length as the band, which is always exact.
	ShortStringBand = 64
)

// Blend weights for combining the token and character metrics.
const (
	// TokenWeight is the weight of the token-multiset Jaccard score.
	TokenWeight = 0.7

	// CharWeight is the weight of the character similarity score.
	CharWeight = 0.3
)

// Sliding window constants
const (
	// WindowPadRatio is the fractional padding applied around the query token
	// count when sizing sliding windows (±30%).
	WindowPadRatio = 0.30

	// MaxWindowTokens caps the number of tokens in a single window.
	MaxWindowTokens = 30

	// MaxWindowQueryTokens is the longest query (in tokens) that is matched with
	// sliding windows. Longer queries are compared whole.
	MaxWindowQueryTokens = 20
)

// Chunked aggregation constants
const (
	// ChunkMin is the minimum number of target tokens per aggregation chunk.
	ChunkMin = 50

	// ChunkMax is the maximum number of target tokens per aggregation chunk.
	ChunkMax = 100

	// ChunkQueryMultiplier scales the query token count into a chunk length.
	ChunkQueryMultiplier = 3
)

// RoundPrecision is the number of decimal places in a final score.
const RoundPrecision = 2

// Boundary constants for guarded invocation.
const (
	// DefaultFaultScore is returned when a comparison panics or times out.
	DefaultFaultScore = 0.0

	// MaxLoggedInputLen is the maximum number of bytes of each input kept in a
	// diagnostic log record.
	MaxLoggedInputLen = 200
)

// Deduplication constants
const (
	// DefaultDedupThreshold is the minimum score for a pair of records to be
	// reported as a duplicate candidate.
	DefaultDedupThreshold = 0.9

	// DefaultMaxDedupRecords bounds the number of records in one dedup run.
	// Pairwise comparison is quadratic.
	DefaultMaxDedupRecords = 2000

	// MaxRankCandidates bounds the number of candidates in one ranking request.
	MaxRankCandidates = 10000
)

// Transport constants
const (
	// DefaultNATSSubject is the request subject of the scoring service.
	DefaultNATSSubject = "fuzler.score"

	// DefaultNATSQueue is the queue group shared by scoring service workers.
	DefaultNATSQueue = "fuzler-workers"
)

// MCP tool names
const (
	ToolScore = "fuzler_score"
	ToolRank  = "fuzler_rank"
	ToolDedup = "fuzler_dedup"
)
