// Package merger combines per-chunk analysis outcomes into a single
// deduplicated result for a file.
//
// Chunks sharing file-level context can report the same issue more than
// once (a split declaration, or a bug visible from both a function and
// its enclosing class). The merger collapses duplicates keyed by
// (line, category), keeping the report with the most substantial
// reasoning, and aggregates cost metrics across all chunks.
package merger

import (
	"fmt"
	"sort"

	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

// dedupKey identifies a finding for duplicate collapsing. Two findings
// on the same file line in the same category are considered one issue
// regardless of how their descriptions are worded.
type dedupKey struct {
	line     int
	category string
}

// Merge combines chunk outcomes into one result. Failed outcomes
// contribute to counts and metrics but never to findings. The input
// order is preserved in ChunkIDs; findings are sorted by line with
// first-seen order breaking ties.
//
// Merging an empty slice is a caller bug and returns ErrNoOutcomes. A
// run whose chunks all failed is not an error here; callers check
// AllFailed on the result.
func Merge(outcomes []types.ChunkOutcome) (*types.MergedResult, error) {
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("%w", types.ErrNoOutcomes)
	}

	result := &types.MergedResult{
		ChunkCount: len(outcomes),
		ChunkIDs:   make([]string, 0, len(outcomes)),
	}

	// seen maps a dedup key to its index in result.Findings so a better
	// duplicate can replace the kept finding in place, preserving order
	seen := make(map[dedupKey]int)

	for _, outcome := range outcomes {
		result.ChunkIDs = append(result.ChunkIDs, outcome.ChunkID)
		result.TotalTokens += outcome.Metrics.Tokens
		result.TotalLatency += outcome.Metrics.Latency

		if !outcome.Succeeded {
			result.FailedChunkCount++
			continue
		}

		for _, finding := range outcome.Findings {
			key := dedupKey{line: finding.Line, category: finding.Category}

			idx, exists := seen[key]
			if !exists {
				seen[key] = len(result.Findings)
				result.Findings = append(result.Findings, finding)
				continue
			}

			// Longer reasoning wins; on equal length the earlier finding stays
			if len(finding.Reasoning) > len(result.Findings[idx].Reasoning) {
				result.Findings[idx] = finding
			}
		}
	}

	sort.SliceStable(result.Findings, func(i, j int) bool {
		return result.Findings[i].Line < result.Findings[j].Line
	})

	return result, nil
}
