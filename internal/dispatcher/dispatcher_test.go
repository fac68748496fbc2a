package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

func testChunk(id string, start, end int, context string) types.Chunk {
	return types.Chunk{
		ID:        id,
		FilePath:  "file.cpp",
		StartLine: start,
		EndLine:   end,
		Code:      "int f() { return 0; }",
		Context:   context,
		NodeKind:  types.NodeFunction,
	}
}

func noFindings(ctx context.Context, chunk types.Chunk) ([]types.Finding, int, error) {
	return nil, 0, nil
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Options{})
	require.Error(t, err)

	_, err = New(noFindings, Options{MaxConcurrency: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidConcurrency)

	d, err := New(noFindings, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxConcurrency, d.maxConcurrency)
	assert.Equal(t, DefaultChunkTimeout, d.timeout)
}

func TestDispatch_EmptyInput(t *testing.T) {
	d, err := New(noFindings, Options{})
	require.NoError(t, err)

	outcomes := d.Dispatch(context.Background(), nil)
	assert.Nil(t, outcomes)
}

func TestDispatch_RemapsLinesToFileCoordinates(t *testing.T) {
	// 3 context lines, chunk starting at file line 100: engine line 8
	// lands on file line 100 + (8 - 3 - 1) = 104
	chunk := testChunk("c1", 100, 150, "#include <a>\n#include <b>\n#include <c>")

	analyze := func(ctx context.Context, c types.Chunk) ([]types.Finding, int, error) {
		return []types.Finding{
			{Line: 8, Category: types.CategoryLogicErrors, Severity: types.SeverityHigh, Description: "bug"},
		}, 50, nil
	}

	d, err := New(analyze, Options{})
	require.NoError(t, err)

	outcomes := d.Dispatch(context.Background(), []types.Chunk{chunk})
	require.Len(t, outcomes, 1)
	require.True(t, outcomes[0].Succeeded)
	require.Len(t, outcomes[0].Findings, 1)
	assert.Equal(t, 104, outcomes[0].Findings[0].Line)
	assert.Equal(t, 50, outcomes[0].Metrics.Tokens)
}

func TestDispatch_ClampsOutOfRangeLines(t *testing.T) {
	chunk := testChunk("c1", 100, 110, "#include <a>\n#include <b>\n#include <c>")

	analyze := func(ctx context.Context, c types.Chunk) ([]types.Finding, int, error) {
		return []types.Finding{
			// Points into the context region: raw remap would be 98
			{Line: 2, Category: types.CategoryLogicErrors, Severity: types.SeverityLow, Description: "low"},
			// Beyond the chunk: raw remap would be 196
			{Line: 100, Category: types.CategoryAPIMisuse, Severity: types.SeverityLow, Description: "high"},
		}, 0, nil
	}

	d, err := New(analyze, Options{})
	require.NoError(t, err)

	outcomes := d.Dispatch(context.Background(), []types.Chunk{chunk})
	require.Len(t, outcomes, 1)
	require.Len(t, outcomes[0].Findings, 2, "clamped findings are kept, not dropped")
	assert.Equal(t, 100, outcomes[0].Findings[0].Line)
	assert.Equal(t, 110, outcomes[0].Findings[1].Line)
}

func TestDispatch_NoContextRemap(t *testing.T) {
	// Fallback chunks have no context: engine line 1 is the chunk's first line
	chunk := testChunk("c1", 40, 60, "")

	analyze := func(ctx context.Context, c types.Chunk) ([]types.Finding, int, error) {
		return []types.Finding{
			{Line: 1, Category: types.CategoryLogicErrors, Severity: types.SeverityMedium, Description: "d"},
			{Line: 5, Category: types.CategoryLogicErrors, Severity: types.SeverityMedium, Description: "d"},
		}, 0, nil
	}

	d, err := New(analyze, Options{})
	require.NoError(t, err)

	outcomes := d.Dispatch(context.Background(), []types.Chunk{chunk})
	require.Len(t, outcomes[0].Findings, 2)
	assert.Equal(t, 40, outcomes[0].Findings[0].Line)
	assert.Equal(t, 44, outcomes[0].Findings[1].Line)
}

func TestDispatch_FailureIsolation(t *testing.T) {
	chunks := make([]types.Chunk, 5)
	for i := range chunks {
		chunks[i] = testChunk(fmt.Sprintf("c%d", i), i*10+1, i*10+10, "")
	}

	analyze := func(ctx context.Context, c types.Chunk) ([]types.Finding, int, error) {
		if c.ID == "c2" {
			return nil, 10, errors.New("engine exploded")
		}
		return []types.Finding{
			{Line: 1, Category: types.CategoryLogicErrors, Severity: types.SeverityLow, Description: "d"},
		}, 20, nil
	}

	d, err := New(analyze, Options{})
	require.NoError(t, err)

	outcomes := d.Dispatch(context.Background(), chunks)
	require.Len(t, outcomes, 5)

	for i, outcome := range outcomes {
		assert.Equal(t, fmt.Sprintf("c%d", i), outcome.ChunkID, "outcomes keep input order")
		if i == 2 {
			assert.False(t, outcome.Succeeded)
			assert.Contains(t, outcome.Error, "engine exploded")
			assert.Empty(t, outcome.Findings)
		} else {
			assert.True(t, outcome.Succeeded)
			assert.Len(t, outcome.Findings, 1)
		}
	}
}

func TestDispatch_RespectsConcurrencyBound(t *testing.T) {
	const limit = 2

	var current, peak atomic.Int32

	analyze := func(ctx context.Context, c types.Chunk) ([]types.Finding, int, error) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		current.Add(-1)
		return nil, 0, nil
	}

	d, err := New(analyze, Options{MaxConcurrency: limit})
	require.NoError(t, err)

	chunks := make([]types.Chunk, 8)
	for i := range chunks {
		chunks[i] = testChunk(fmt.Sprintf("c%d", i), 1, 10, "")
	}

	outcomes := d.Dispatch(context.Background(), chunks)
	require.Len(t, outcomes, 8)
	assert.LessOrEqual(t, peak.Load(), int32(limit))
}

func TestDispatch_PerChunkTimeout(t *testing.T) {
	analyze := func(ctx context.Context, c types.Chunk) ([]types.Finding, int, error) {
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case <-time.After(5 * time.Second):
			return nil, 0, nil
		}
	}

	d, err := New(analyze, Options{Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	outcomes := d.Dispatch(context.Background(), []types.Chunk{testChunk("slow", 1, 10, "")})
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Succeeded)
	assert.Contains(t, outcomes[0].Error, "deadline")
}

func TestDispatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	analyze := func(ctx context.Context, c types.Chunk) ([]types.Finding, int, error) {
		calls.Add(1)
		return nil, 0, nil
	}

	d, err := New(analyze, Options{})
	require.NoError(t, err)

	chunks := []types.Chunk{
		testChunk("c1", 1, 10, ""),
		testChunk("c2", 11, 20, ""),
	}

	outcomes := d.Dispatch(ctx, chunks)
	require.Len(t, outcomes, 2, "every chunk still gets an outcome")
	for _, outcome := range outcomes {
		assert.False(t, outcome.Succeeded)
		assert.Contains(t, outcome.Error, "cancelled")
	}
	assert.Zero(t, calls.Load(), "no analysis starts after cancellation")
}

func TestDispatch_RecordsLatency(t *testing.T) {
	var mu sync.Mutex

	analyze := func(ctx context.Context, c types.Chunk) ([]types.Finding, int, error) {
		mu.Lock()
		defer mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		return nil, 7, nil
	}

	d, err := New(analyze, Options{})
	require.NoError(t, err)

	outcomes := d.Dispatch(context.Background(), []types.Chunk{testChunk("c1", 1, 10, "")})
	require.Len(t, outcomes, 1)
	assert.GreaterOrEqual(t, outcomes[0].Metrics.Latency, 10*time.Millisecond)
	assert.Equal(t, 7, outcomes[0].Metrics.Tokens)
}
