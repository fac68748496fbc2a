package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

func testChunk() types.Chunk {
	return types.Chunk{
		ID:        "sample.cpp:divide:10-14",
		FilePath:  "sample.cpp",
		StartLine: 10,
		EndLine:   14,
		Code:      "int divide(int a, int b) {\n    return a / b;\n}",
		Context:   "#include <iostream>",
		NodeKind:  types.NodeFunction,
	}
}

// newChatServer returns an httptest server that answers /api/chat with
// the given content as the assistant message
func newChatServer(t *testing.T, content string, calls *atomic.Int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}

		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)

		var req struct {
			Model    string        `json:"model"`
			Messages []chatMessage `json:"messages"`
			Stream   bool          `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		require.Equal(t, "system", req.Messages[0].Role)

		resp := chatResponse{
			Message:         chatMessage{Role: "assistant", Content: content},
			PromptEvalCount: 150,
			EvalCount:       80,
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestOllamaAnalyzer_AnalyzeChunk(t *testing.T) {
	content := `[{"line": 3, "category": "edge-case-handling", "severity": "high",
		"description": "division by zero when b is 0", "reasoning": "b is never checked"}]`

	server := newChatServer(t, content, nil)
	defer server.Close()

	a := NewOllamaAnalyzer(server.URL, "test-model", nil)
	defer func() { _ = a.Close() }()

	result, err := a.AnalyzeChunk(context.Background(), testChunk())
	require.NoError(t, err)

	require.Len(t, result.Findings, 1)
	assert.Equal(t, 3, result.Findings[0].Line)
	assert.Equal(t, types.CategoryEdgeCaseHandling, result.Findings[0].Category)
	assert.Equal(t, 230, result.Tokens)
}

func TestOllamaAnalyzer_EmptyChunk(t *testing.T) {
	a := NewOllamaAnalyzer("http://unused", "test-model", nil)

	chunk := testChunk()
	chunk.Code = ""

	_, err := a.AnalyzeChunk(context.Background(), chunk)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyChunk)
}

func TestOllamaAnalyzer_CachesByContentHash(t *testing.T) {
	var calls atomic.Int32
	server := newChatServer(t, "[]", &calls)
	defer server.Close()

	cache := NewCache(10)
	a := NewOllamaAnalyzer(server.URL, "test-model", cache)
	defer func() { _ = a.Close() }()

	chunk := testChunk()

	_, err := a.AnalyzeChunk(context.Background(), chunk)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// Same chunk again: served from cache, no engine call, no token cost
	result, err := a.AnalyzeChunk(context.Background(), chunk)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Zero(t, result.Tokens)

	// Changed code misses the cache
	chunk.Code = "int divide(int a, int b) {\n    return b / a;\n}"
	_, err = a.AnalyzeChunk(context.Background(), chunk)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOllamaAnalyzer_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "model loading", http.StatusServiceUnavailable)
			return
		}
		resp := chatResponse{Message: chatMessage{Role: "assistant", Content: "[]"}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a := NewOllamaAnalyzer(server.URL, "test-model", nil)
	defer func() { _ = a.Close() }()

	result, err := a.AnalyzeChunk(context.Background(), testChunk())
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOllamaAnalyzer_FailsAfterRetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	a := NewOllamaAnalyzer(server.URL, "test-model", nil)
	defer func() { _ = a.Close() }()

	_, err := a.AnalyzeChunk(context.Background(), testChunk())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEngineFailed)
}

func TestOllamaAnalyzer_ContextCancellation(t *testing.T) {
	server := newChatServer(t, "[]", nil)
	defer server.Close()

	a := NewOllamaAnalyzer(server.URL, "test-model", nil)
	defer func() { _ = a.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.AnalyzeChunk(ctx, testChunk())
	require.Error(t, err)
}

func TestOllamaAnalyzer_TokenEstimateFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No eval counts in the response
		resp := chatResponse{Message: chatMessage{Role: "assistant", Content: "[]"}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a := NewOllamaAnalyzer(server.URL, "test-model", nil)
	defer func() { _ = a.Close() }()

	result, err := a.AnalyzeChunk(context.Background(), testChunk())
	require.NoError(t, err)
	assert.Greater(t, result.Tokens, 0, "falls back to length-based estimate")
}

func TestOllamaAnalyzer_Defaults(t *testing.T) {
	a := NewOllamaAnalyzer("", "", nil)
	assert.Equal(t, EngineOllama, a.Engine())
	assert.Equal(t, DefaultModel, a.Model())
	assert.Equal(t, DefaultOllamaURL, a.baseURL)
}

func TestCache_DeepCopyOnGet(t *testing.T) {
	cache := NewCache(10)

	original := &Result{
		Findings: []types.Finding{
			{Line: 1, Category: types.CategoryLogicErrors, Severity: types.SeverityLow, Description: "d"},
		},
		Tokens: 42,
	}
	cache.Set("key", original)

	got, ok := cache.Get("key")
	require.True(t, ok)

	// Mutating the returned copy must not affect the cached value
	got.Findings[0].Description = "mutated"

	again, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, "d", again.Findings[0].Description)
}

func TestCache_Eviction(t *testing.T) {
	cache := NewCache(2)

	cache.Set("a", &Result{})
	cache.Set("b", &Result{})
	cache.Set("c", &Result{})

	assert.Equal(t, 2, cache.Size())
	_, ok := cache.Get("a")
	assert.False(t, ok, "oldest entry evicted")
}

func TestComputeHash(t *testing.T) {
	h1 := ComputeHash("model-a", "text")
	h2 := ComputeHash("model-a", "text")
	h3 := ComputeHash("model-b", "text")
	h4 := ComputeHash("model-a", "other")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3, "model is part of the key")
	assert.NotEqual(t, h1, h4)
	assert.Len(t, h1, 64)
}
