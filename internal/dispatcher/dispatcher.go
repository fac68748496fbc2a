// Package dispatcher fans chunks out to the analysis engine with
// bounded concurrency and maps engine-reported line numbers back to
// file coordinates.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

const (
	// DefaultMaxConcurrency bounds in-flight analysis calls. Local LLM
	// engines degrade badly past a handful of parallel requests.
	DefaultMaxConcurrency = 4

	// DefaultChunkTimeout is the per-chunk analysis deadline
	DefaultChunkTimeout = 2 * time.Minute
)

// AnalyzeFunc analyzes one chunk and returns findings with line numbers
// relative to the chunk's dispatch text, plus the token count consumed.
// The dispatcher owns the remap to file coordinates; implementations
// must not attempt it themselves.
type AnalyzeFunc func(ctx context.Context, chunk types.Chunk) ([]types.Finding, int, error)

// Options configures a Dispatcher. Zero values select defaults.
type Options struct {
	// MaxConcurrency is the maximum number of chunks analyzed in
	// parallel. Must not be negative; 0 means DefaultMaxConcurrency.
	MaxConcurrency int

	// Timeout is the per-chunk analysis deadline. 0 means
	// DefaultChunkTimeout; negative disables the deadline entirely.
	Timeout time.Duration
}

// Dispatcher runs chunk analyses concurrently. Each chunk is fully
// isolated: a failed or timed-out chunk becomes a failed outcome and
// never affects its siblings.
type Dispatcher struct {
	analyze        AnalyzeFunc
	maxConcurrency int
	timeout        time.Duration
}

// New creates a Dispatcher around an analysis function
func New(analyze AnalyzeFunc, opts Options) (*Dispatcher, error) {
	if analyze == nil {
		return nil, errors.New("analyze function is required")
	}

	if opts.MaxConcurrency < 0 {
		return nil, fmt.Errorf("%w: got %d", types.ErrInvalidConcurrency, opts.MaxConcurrency)
	}
	if opts.MaxConcurrency == 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}

	if opts.Timeout == 0 {
		opts.Timeout = DefaultChunkTimeout
	}

	return &Dispatcher{
		analyze:        analyze,
		maxConcurrency: opts.MaxConcurrency,
		timeout:        opts.Timeout,
	}, nil
}

// Dispatch analyzes all chunks and returns one outcome per chunk, in
// input order. It always returns len(chunks) outcomes: failures are
// recorded in the outcome, not returned as errors. Cancelling ctx stops
// new work; chunks not yet started are recorded as failed outcomes, so
// completed work is never discarded.
func (d *Dispatcher) Dispatch(ctx context.Context, chunks []types.Chunk) []types.ChunkOutcome {
	if len(chunks) == 0 {
		return nil
	}

	outcomes := make([]types.ChunkOutcome, len(chunks))

	var g errgroup.Group
	g.SetLimit(d.maxConcurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			outcomes[i] = d.dispatchOne(ctx, chunk)
			return nil
		})
	}

	// Workers never return errors; failures live in the outcomes
	_ = g.Wait()

	return outcomes
}

// dispatchOne runs a single chunk analysis under the per-chunk deadline
func (d *Dispatcher) dispatchOne(ctx context.Context, chunk types.Chunk) types.ChunkOutcome {
	outcome := types.ChunkOutcome{ChunkID: chunk.ID}

	if err := ctx.Err(); err != nil {
		outcome.Error = fmt.Sprintf("dispatch cancelled: %v", err)
		return outcome
	}

	chunkCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		chunkCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	findings, tokens, err := d.analyze(chunkCtx, chunk)
	outcome.Metrics = types.Metrics{
		Tokens:  tokens,
		Latency: time.Since(start),
	}

	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Succeeded = true
	outcome.Findings = remapFindings(chunk, findings)
	return outcome
}

// remapFindings converts engine line numbers, which are relative to the
// dispatch text the engine saw (file-level context followed by the
// chunk code), into file coordinates:
//
//	fileLine = chunk.StartLine + (line - contextLines - 1)
//
// Results outside the chunk's range are clamped to it rather than
// dropped: a slightly misplaced finding is still worth reporting, and
// the clamp keeps every line attributable to the chunk that produced it.
func remapFindings(chunk types.Chunk, findings []types.Finding) []types.Finding {
	if len(findings) == 0 {
		return nil
	}

	contextLines := chunk.ContextLineCount()

	remapped := make([]types.Finding, 0, len(findings))
	for _, f := range findings {
		line := chunk.StartLine + (f.Line - contextLines - 1)
		if line < chunk.StartLine {
			line = chunk.StartLine
		}
		if line > chunk.EndLine {
			line = chunk.EndLine
		}

		f.Line = line
		remapped = append(remapped, f)
	}

	return remapped
}
