// Package analyzer sends chunk text to an LLM engine and turns its
// response into validated findings.
package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

// Common errors
var (
	ErrEngineFailed      = errors.New("analysis engine failed")
	ErrEmptyChunk        = errors.New("chunk code cannot be empty")
	ErrMalformedResponse = errors.New("malformed engine response")
	ErrUnsupportedEngine = errors.New("unsupported analysis engine")
)

// Result is one chunk's analysis output. Finding lines are relative to
// the dispatched text; the dispatcher remaps them to file coordinates.
type Result struct {
	Findings []types.Finding
	Tokens   int
}

// Analyzer is the analysis engine abstraction the dispatcher runs on
type Analyzer interface {
	// AnalyzeChunk reviews one chunk and returns its findings
	AnalyzeChunk(ctx context.Context, chunk types.Chunk) (*Result, error)

	// Engine returns the engine name
	Engine() string

	// Model returns the model name
	Model() string

	// Close releases any resources held by the analyzer
	Close() error
}

// Cache provides in-memory LRU caching of analysis results keyed by
// content hash, so re-reviewing an unchanged chunk skips the engine call
type Cache struct {
	cache *lru.Cache[string, *Result]
}

// NewCache creates a new result cache with LRU eviction
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 1000 // Default: cache 1k chunk results
	}
	cache, err := lru.New[string, *Result](maxLen)
	if err != nil {
		// Should never happen with positive size, but fallback to default
		cache, _ = lru.New[string, *Result](1000)
	}
	return &Cache{
		cache: cache,
	}
}

// Get retrieves a deep copy of a result from cache
// Returns a copy to prevent caller mutations from affecting cached values
func (c *Cache) Get(hash string) (*Result, bool) {
	result, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}

	findingsCopy := make([]types.Finding, len(result.Findings))
	copy(findingsCopy, result.Findings)

	return &Result{
		Findings: findingsCopy,
		Tokens:   result.Tokens,
	}, true
}

// Set stores a result in cache with automatic LRU eviction
func (c *Cache) Set(hash string, result *Result) {
	c.cache.Add(hash, result)
}

// Size returns the current cache size
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear empties the cache
func (c *Cache) Clear() {
	c.cache.Purge()
}

// ComputeHash computes the SHA-256 cache key for a model/text pair.
// The model is part of the key: the same chunk reviewed by a different
// model is a different analysis.
func ComputeHash(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
