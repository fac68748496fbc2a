package chunker

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ApeachM/llm-code-reviewer-sub001/internal/parser"
	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

// DefaultMaxChunkLines is the default size limit (context + code) per chunk
const DefaultMaxChunkLines = 200

// Chunker splits source files into analyzable chunks aligned to
// syntactic boundaries, with line-window fallback when parsing fails
type Chunker struct {
	parser *parser.Parser
}

// New creates a new Chunker instance
func New() *Chunker {
	return &Chunker{
		parser: parser.New(),
	}
}

// NewWithParser creates a Chunker backed by an existing parser, so its
// grammar cache is shared
func NewWithParser(p *parser.Parser) *Chunker {
	return &Chunker{parser: p}
}

// ChunkFile splits source text into chunks of at most maxChunkLines
// lines each (context included). It never fails on malformed input:
// parse failures and files without top-level declarations fall back to
// fixed-size line windows. Non-empty source always yields at least one
// chunk. The only error is the caller passing a non-positive limit.
func (c *Chunker) ChunkFile(filePath, source string, maxChunkLines int) ([]types.Chunk, error) {
	if maxChunkLines <= 0 {
		return nil, fmt.Errorf("%w: got %d", types.ErrInvalidChunkLines, maxChunkLines)
	}

	if source == "" {
		return nil, nil
	}

	lang := parser.DetectLanguage(filePath)
	if lang == "" {
		return c.fallbackLineChunks(filePath, source, maxChunkLines), nil
	}

	result, err := c.parser.Parse([]byte(source), lang)
	if err != nil {
		return c.fallbackLineChunks(filePath, source, maxChunkLines), nil
	}

	// Files with only global statements (no functions/classes) take the
	// fallback path; the two paths never cover the same line twice
	if len(result.Declarations) == 0 {
		return c.fallbackLineChunks(filePath, source, maxChunkLines), nil
	}

	context := buildContext(result.ContextNodes)
	contextLines := types.CountLines(context)

	chunks := make([]types.Chunk, 0, len(result.Declarations))
	for _, decl := range result.Declarations {
		chunk := types.Chunk{
			ID:        chunkID(filePath, decl.Name, decl.StartLine, decl.EndLine),
			FilePath:  filePath,
			StartLine: decl.StartLine,
			EndLine:   decl.EndLine,
			Code:      decl.Text,
			Context:   context,
			NodeKind:  decl.Kind,
		}

		if chunk.TotalLines() > maxChunkLines {
			chunks = append(chunks, splitChunk(chunk, maxChunkLines, contextLines)...)
		} else {
			chunks = append(chunks, chunk)
		}
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].StartLine < chunks[j].StartLine
	})

	return chunks, nil
}

// buildContext concatenates file-level context nodes (includes, usings,
// imports) in source order
func buildContext(nodes []parser.Node) string {
	if len(nodes) == 0 {
		return ""
	}

	parts := make([]string, 0, len(nodes))
	for _, node := range nodes {
		parts = append(parts, node.Text)
	}
	return strings.Join(parts, "\n")
}

// splitChunk splits an oversized declaration into consecutive line
// windows that each stay under the limit once context is prepended.
// The sub-ranges are not re-parsed; they share the parent's context and
// node kind and carry a 1-based SplitIndex.
func splitChunk(chunk types.Chunk, maxChunkLines, contextLines int) []types.Chunk {
	window := maxChunkLines - contextLines
	if window <= 0 {
		// Context alone exceeds the budget; fall back to raw windows so
		// splitting still terminates
		window = maxChunkLines
	}

	lines := strings.Split(chunk.Code, "\n")
	parts := make([]types.Chunk, 0, (len(lines)+window-1)/window)

	for i := 0; i < len(lines); i += window {
		end := i + window
		if end > len(lines) {
			end = len(lines)
		}

		subStart := chunk.StartLine + i
		subEnd := chunk.StartLine + end - 1
		if subEnd > chunk.EndLine {
			subEnd = chunk.EndLine
		}

		part := types.Chunk{
			ID:         fmt.Sprintf("%s_part%d", chunk.ID, len(parts)+1),
			FilePath:   chunk.FilePath,
			StartLine:  subStart,
			EndLine:    subEnd,
			Code:       strings.Join(lines[i:end], "\n"),
			Context:    chunk.Context,
			NodeKind:   chunk.NodeKind,
			SplitIndex: len(parts) + 1,
		}
		parts = append(parts, part)
	}

	return parts
}

// fallbackLineChunks chunks the entire file into fixed-size line windows
// with no context. Used when parsing fails or finds no declarations.
func (c *Chunker) fallbackLineChunks(filePath, source string, maxChunkLines int) []types.Chunk {
	lines := strings.Split(source, "\n")
	chunks := make([]types.Chunk, 0, (len(lines)+maxChunkLines-1)/maxChunkLines)

	for i := 0; i < len(lines); i += maxChunkLines {
		end := i + maxChunkLines
		if end > len(lines) {
			end = len(lines)
		}

		startLine := i + 1
		endLine := end

		chunk := types.Chunk{
			ID:        fmt.Sprintf("%s:lines_%d-%d", filepath.Base(filePath), startLine, endLine),
			FilePath:  filePath,
			StartLine: startLine,
			EndLine:   endLine,
			Code:      strings.Join(lines[i:end], "\n"),
			NodeKind:  types.NodeFallback,
		}
		chunks = append(chunks, chunk)
	}

	return chunks
}

// chunkID builds a stable chunk identifier from the file name,
// declaration name, and line range
func chunkID(filePath, name string, startLine, endLine int) string {
	return fmt.Sprintf("%s:%s:%d-%d", filepath.Base(filePath), name, startLine, endLine)
}
