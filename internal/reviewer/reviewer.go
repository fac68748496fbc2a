// Package reviewer coordinates the review pipeline: chunk -> dispatch
// -> merge -> persist.
package reviewer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ApeachM/llm-code-reviewer-sub001/internal/analyzer"
	"github.com/ApeachM/llm-code-reviewer-sub001/internal/chunker"
	"github.com/ApeachM/llm-code-reviewer-sub001/internal/dispatcher"
	"github.com/ApeachM/llm-code-reviewer-sub001/internal/merger"
	"github.com/ApeachM/llm-code-reviewer-sub001/internal/storage"
	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

const (
	// MaxFileSize guards against reviewing generated or binary blobs
	MaxFileSize = 2 << 20 // 2 MB
)

// Environment variables for pipeline configuration
const (
	EnvMaxChunkLines  = "LLMREVIEW_MAX_CHUNK_LINES"
	EnvMaxConcurrency = "LLMREVIEW_MAX_CONCURRENCY"
	EnvChunkTimeout   = "LLMREVIEW_CHUNK_TIMEOUT_SEC"
)

var (
	// ErrAllChunksFailed is returned when no chunk produced a usable result
	ErrAllChunksFailed = errors.New("all chunks failed analysis")
	// ErrFileTooLarge is returned for files over MaxFileSize
	ErrFileTooLarge = errors.New("file too large to review")
)

// Config contains configuration for the review pipeline
type Config struct {
	MaxChunkLines  int           // Per-chunk line budget (default: chunker.DefaultMaxChunkLines)
	MaxConcurrency int           // Parallel engine calls (default: dispatcher.DefaultMaxConcurrency)
	ChunkTimeout   time.Duration // Per-chunk deadline (default: dispatcher.DefaultChunkTimeout)
}

// ConfigFromEnv builds a Config from environment variables, falling
// back to defaults for unset or unparseable values
func ConfigFromEnv() *Config {
	cfg := &Config{}

	if v, err := strconv.Atoi(os.Getenv(EnvMaxChunkLines)); err == nil && v > 0 {
		cfg.MaxChunkLines = v
	}
	if v, err := strconv.Atoi(os.Getenv(EnvMaxConcurrency)); err == nil && v > 0 {
		cfg.MaxConcurrency = v
	}
	if v, err := strconv.Atoi(os.Getenv(EnvChunkTimeout)); err == nil && v > 0 {
		cfg.ChunkTimeout = time.Duration(v) * time.Second
	}

	return cfg
}

// Review is the outcome of reviewing one file
type Review struct {
	RunID    int64 // 0 when persistence is disabled
	FilePath string
	Model    string
	Result   *types.MergedResult
	Duration time.Duration
}

// Reviewer runs the full pipeline for one file at a time. Safe for
// concurrent use; all state below is read-only after construction.
type Reviewer struct {
	chunker       *chunker.Chunker
	analyzer      analyzer.Analyzer
	dispatcher    *dispatcher.Dispatcher
	storage       storage.Storage // nil disables persistence
	maxChunkLines int
}

// New creates a Reviewer. storage may be nil to skip run persistence.
func New(a analyzer.Analyzer, store storage.Storage, cfg *Config) (*Reviewer, error) {
	if a == nil {
		return nil, errors.New("analyzer is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	maxChunkLines := cfg.MaxChunkLines
	if maxChunkLines == 0 {
		maxChunkLines = chunker.DefaultMaxChunkLines
	}
	if maxChunkLines < 0 {
		return nil, fmt.Errorf("%w: got %d", types.ErrInvalidChunkLines, maxChunkLines)
	}

	analyze := func(ctx context.Context, chunk types.Chunk) ([]types.Finding, int, error) {
		result, err := a.AnalyzeChunk(ctx, chunk)
		if err != nil {
			return nil, 0, err
		}
		return result.Findings, result.Tokens, nil
	}

	d, err := dispatcher.New(analyze, dispatcher.Options{
		MaxConcurrency: cfg.MaxConcurrency,
		Timeout:        cfg.ChunkTimeout,
	})
	if err != nil {
		return nil, err
	}

	return &Reviewer{
		chunker:       chunker.New(),
		analyzer:      a,
		dispatcher:    d,
		storage:       store,
		maxChunkLines: maxChunkLines,
	}, nil
}

// ReviewFile reads a file from disk and reviews it
func (r *Reviewer) ReviewFile(ctx context.Context, filePath string) (*Review, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", filePath, err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, filePath, info.Size())
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}

	return r.ReviewSource(ctx, filePath, string(source))
}

// ReviewSource reviews source text directly, using filePath only for
// language detection and reporting
func (r *Reviewer) ReviewSource(ctx context.Context, filePath, source string) (*Review, error) {
	start := time.Now()

	chunks, err := r.chunker.ChunkFile(filePath, source, r.maxChunkLines)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", filePath, err)
	}

	review := &Review{
		FilePath: filePath,
		Model:    r.analyzer.Model(),
	}

	// Empty files review to an empty result
	if len(chunks) == 0 {
		review.Result = &types.MergedResult{}
		review.Duration = time.Since(start)
		return review, nil
	}

	outcomes := r.dispatcher.Dispatch(ctx, chunks)

	result, err := merger.Merge(outcomes)
	if err != nil {
		return nil, fmt.Errorf("merge %s: %w", filePath, err)
	}

	if result.AllFailed() {
		return nil, fmt.Errorf("%w: %s (%d chunks)", ErrAllChunksFailed, filePath, result.ChunkCount)
	}

	review.Result = result
	review.Duration = time.Since(start)

	if r.storage != nil {
		run := storage.NewRun(filePath, r.analyzer.Model(), result)
		if err := r.storage.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("persist run for %s: %w", filePath, err)
		}
		review.RunID = run.ID
	}

	return review, nil
}
