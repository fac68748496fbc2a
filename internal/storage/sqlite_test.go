package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "reviews.db")
	s, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func sampleRun() *Run {
	return &Run{
		FilePath:         "src/server.cpp",
		Model:            "qwen2.5-coder:7b",
		ChunkCount:       3,
		FailedChunkCount: 1,
		TotalTokens:      1200,
		TotalLatency:     4 * time.Second,
		ChunkIDs:         []string{"server.cpp:main:1-40", "server.cpp:handle:41-90_part1", "server.cpp:handle:41-90_part2"},
		Findings: []types.Finding{
			{Line: 12, Category: types.CategoryLogicErrors, Severity: types.SeverityHigh,
				Description: "loop never terminates", Reasoning: "condition uses = instead of =="},
			{Line: 55, Category: types.CategoryAPIMisuse, Severity: types.SeverityMedium,
				Description: "socket not closed on error path", Reasoning: "early return skips cleanup",
				SuggestedFix: "use a scoped guard"},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, s.SaveRun(ctx, run))
	assert.NotZero(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.FilePath, got.FilePath)
	assert.Equal(t, run.Model, got.Model)
	assert.Equal(t, run.ChunkCount, got.ChunkCount)
	assert.Equal(t, run.FailedChunkCount, got.FailedChunkCount)
	assert.Equal(t, run.TotalTokens, got.TotalTokens)
	assert.Equal(t, run.TotalLatency, got.TotalLatency)
	assert.Equal(t, run.ChunkIDs, got.ChunkIDs)
	require.Len(t, got.Findings, 2)
	assert.Equal(t, run.Findings[0].Description, got.Findings[0].Description)
	assert.Equal(t, run.Findings[1].SuggestedFix, got.Findings[1].SuggestedFix)
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetRun(context.Background(), 9999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRuns(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := sampleRun()
		if i == 2 {
			run.FilePath = "src/other.cpp"
		}
		require.NoError(t, s.SaveRun(ctx, run))
	}

	all, err := s.ListRuns(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.GreaterOrEqual(t, all[0].ID, all[1].ID, "newest first")
	assert.Empty(t, all[0].Findings, "listing omits findings")

	filtered, err := s.ListRuns(ctx, "src/other.cpp", 10)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "src/other.cpp", filtered[0].FilePath)
}

func TestListRuns_Limit(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveRun(ctx, sampleRun()))
	}

	runs, err := s.ListRuns(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestDeleteRun_CascadesFindings(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, s.SaveRun(ctx, run))
	require.NoError(t, s.DeleteRun(ctx, run.ID))

	_, err := s.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM findings WHERE run_id = ?", run.ID).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count, "findings removed with their run")
}

func TestDeleteRun_NotFound(t *testing.T) {
	s := newTestStorage(t)

	err := s.DeleteRun(context.Background(), 12345)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRun_EmptyFindings(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	run := sampleRun()
	run.Findings = nil
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Findings)
}

func TestNewRun(t *testing.T) {
	result := &types.MergedResult{
		Findings: []types.Finding{
			{Line: 1, Category: types.CategoryLogicErrors, Severity: types.SeverityLow, Description: "d"},
		},
		ChunkCount:       2,
		FailedChunkCount: 0,
		TotalTokens:      500,
		TotalLatency:     time.Second,
		ChunkIDs:         []string{"a", "b"},
	}

	run := NewRun("main.cpp", "test-model", result)
	assert.Equal(t, "main.cpp", run.FilePath)
	assert.Equal(t, 2, run.ChunkCount)
	assert.Equal(t, result.Findings, run.Findings)
	assert.Equal(t, result.ChunkIDs, run.ChunkIDs)
}
