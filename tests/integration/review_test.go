package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ApeachM/llm-code-reviewer-sub001/internal/reviewer"
	"github.com/ApeachM/llm-code-reviewer-sub001/internal/storage"
	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

// reviewSource has BUG markers on file lines 6 and 13
const reviewSource = `#include <vector>
#include <string>

int sum(const std::vector<int>& v) {
    int total = 0;
    for (size_t i = 0; i <= v.size(); i++) { // BUG
        total += v[i];
    }
    return total;
}

int divide(int a, int b) {
    return a / b; // BUG
}`

func writeSourceFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReviewPipeline_EndToEnd(t *testing.T) {
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "reviews.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	r, err := reviewer.New(NewMockAnalyzer(), store, nil)
	require.NoError(t, err)

	path := writeSourceFile(t, "math.cpp", reviewSource)

	review, err := r.ReviewFile(context.Background(), path)
	require.NoError(t, err)

	result := review.Result
	assert.Equal(t, 2, result.ChunkCount, "two functions, two chunks")
	assert.Zero(t, result.FailedChunkCount)
	assert.Greater(t, result.TotalTokens, 0)

	// Markers land back on their exact file lines after the remap
	require.Len(t, result.Findings, 2)
	assert.Equal(t, 6, result.Findings[0].Line)
	assert.Equal(t, 13, result.Findings[1].Line)

	// Run was persisted with its findings
	require.NotZero(t, review.RunID)
	run, err := store.GetRun(context.Background(), review.RunID)
	require.NoError(t, err)
	assert.Equal(t, path, run.FilePath)
	assert.Equal(t, "mock-v1", run.Model)
	require.Len(t, run.Findings, 2)
	assert.Equal(t, 6, run.Findings[0].Line)
	assert.Len(t, run.ChunkIDs, 2)
}

func TestReviewPipeline_PartialFailure(t *testing.T) {
	mock := NewMockAnalyzer()
	mock.FailChunks = []string{"divide"}

	r, err := reviewer.New(mock, nil, nil)
	require.NoError(t, err)

	path := writeSourceFile(t, "math.cpp", reviewSource)

	review, err := r.ReviewFile(context.Background(), path)
	require.NoError(t, err, "one failed chunk must not fail the review")

	result := review.Result
	assert.Equal(t, 2, result.ChunkCount)
	assert.Equal(t, 1, result.FailedChunkCount)

	// Only the surviving chunk's finding remains
	require.Len(t, result.Findings, 1)
	assert.Equal(t, 6, result.Findings[0].Line)
}

func TestReviewPipeline_FallbackForUnparseableFile(t *testing.T) {
	r, err := reviewer.New(NewMockAnalyzer(), nil, nil)
	require.NoError(t, err)

	// Unknown extension: whole file reviewed as line windows
	path := writeSourceFile(t, "script.cfg", "set a 1\nset b 2 // BUG\nset c 3")

	review, err := r.ReviewFile(context.Background(), path)
	require.NoError(t, err)

	result := review.Result
	assert.Equal(t, 1, result.ChunkCount)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, 2, result.Findings[0].Line, "fallback chunks have no context offset")
}

func TestReviewPipeline_SplitDeclarationKeepsCoordinates(t *testing.T) {
	// A function long enough to split: markers in different parts must
	// still map to their exact file lines
	lines := make([]string, 0, 120)
	lines = append(lines, "int big() {")
	for i := 0; i < 118; i++ {
		lines = append(lines, "    total += 1;")
	}
	lines = append(lines, "}")

	// Mark file lines 10 and 80
	lines[9] += " // BUG"
	lines[79] += " // BUG"
	source := strings.Join(lines, "\n")

	r, err := reviewer.New(NewMockAnalyzer(), nil, &reviewer.Config{MaxChunkLines: 50})
	require.NoError(t, err)

	path := writeSourceFile(t, "big.cpp", source)

	review, err := r.ReviewFile(context.Background(), path)
	require.NoError(t, err)

	result := review.Result
	assert.Equal(t, 3, result.ChunkCount, "120 lines in windows of 50")

	require.Len(t, result.Findings, 2)
	assert.Equal(t, 10, result.Findings[0].Line)
	assert.Equal(t, 80, result.Findings[1].Line)
}

func TestReviewPipeline_DeduplicatesAcrossChunks(t *testing.T) {
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "reviews.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	r, err := reviewer.New(NewMockAnalyzer(), store, nil)
	require.NoError(t, err)

	path := writeSourceFile(t, "math.cpp", reviewSource)

	review, err := r.ReviewFile(context.Background(), path)
	require.NoError(t, err)

	seen := map[[2]interface{}]bool{}
	for _, f := range review.Result.Findings {
		key := [2]interface{}{f.Line, f.Category}
		assert.False(t, seen[key], "no duplicate (line, category) pairs in merged output")
		seen[key] = true
	}
	for _, f := range review.Result.Findings {
		assert.Equal(t, types.CategoryLogicErrors, f.Category)
	}
}
