// Package storage persists review runs and their findings in SQLite.
package storage

import (
	"context"
	"time"

	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

// Storage defines the interface for persisting and querying review runs
type Storage interface {
	// SaveRun stores a completed review run and its findings. The run's
	// ID and CreatedAt are filled in on success.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run with its findings by ID
	GetRun(ctx context.Context, id int64) (*Run, error)

	// ListRuns returns recent runs, newest first, without their
	// findings. An empty filePath matches all files.
	ListRuns(ctx context.Context, filePath string, limit int) ([]*Run, error)

	// DeleteRun removes a run and its findings
	DeleteRun(ctx context.Context, id int64) error

	// Close closes the underlying database
	Close() error
}

// Run is one persisted review of one file
type Run struct {
	ID       int64
	FilePath string
	Model    string

	ChunkCount       int
	FailedChunkCount int
	TotalTokens      int
	TotalLatency     time.Duration
	ChunkIDs         []string

	Findings []types.Finding

	CreatedAt time.Time
}

// NewRun builds a Run from a merged result, ready to persist
func NewRun(filePath, model string, result *types.MergedResult) *Run {
	return &Run{
		FilePath:         filePath,
		Model:            model,
		ChunkCount:       result.ChunkCount,
		FailedChunkCount: result.FailedChunkCount,
		TotalTokens:      result.TotalTokens,
		TotalLatency:     result.TotalLatency,
		ChunkIDs:         result.ChunkIDs,
		Findings:         result.Findings,
	}
}
