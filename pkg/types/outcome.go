package types

import "time"

// Metrics holds opaque, additive per-chunk analysis costs
type Metrics struct {
	Tokens  int
	Latency time.Duration
}

// Add returns the element-wise sum of two metrics
func (m Metrics) Add(other Metrics) Metrics {
	return Metrics{
		Tokens:  m.Tokens + other.Tokens,
		Latency: m.Latency + other.Latency,
	}
}

// ChunkOutcome is the result of dispatching one chunk to the analysis
// engine. A failed outcome carries no findings and never aborts siblings.
type ChunkOutcome struct {
	ChunkID   string
	Findings  []Finding // file-coordinate, post-remap
	Succeeded bool
	Error     string // diagnostic message when Succeeded is false
	Metrics   Metrics
}

// MergedResult is the final, deduplicated output for one file
type MergedResult struct {
	// Findings sorted by line ascending; ties keep first-seen order
	Findings []Finding

	ChunkCount       int
	FailedChunkCount int
	TotalTokens      int
	TotalLatency     time.Duration

	// ChunkIDs preserves the dispatch order of all outcomes for traceability
	ChunkIDs []string
}

// AllFailed reports whether every chunk of the run failed. Callers decide
// whether to treat a fully failed run as an error.
func (r *MergedResult) AllFailed() bool {
	return r.ChunkCount > 0 && r.FailedChunkCount == r.ChunkCount
}
