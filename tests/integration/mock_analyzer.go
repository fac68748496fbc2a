package integration

import (
	"context"
	"strings"

	"github.com/ApeachM/llm-code-reviewer-sub001/internal/analyzer"
	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

// MockAnalyzer provides a fake analysis engine for pipeline testing.
// It reports one finding for every code line containing a "// BUG"
// marker, at the chunk-relative coordinate a real engine would use
// (context line count plus position within the code), so the
// dispatcher's remap can be verified against exact file lines.
type MockAnalyzer struct {
	model string

	// FailChunks lists chunk ID substrings whose analysis should fail
	FailChunks []string
}

// NewMockAnalyzer creates a new mock analyzer
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{model: "mock-v1"}
}

// AnalyzeChunk scans for BUG markers and reports them as findings
func (m *MockAnalyzer) AnalyzeChunk(ctx context.Context, chunk types.Chunk) (*analyzer.Result, error) {
	if chunk.Code == "" {
		return nil, analyzer.ErrEmptyChunk
	}

	for _, pattern := range m.FailChunks {
		if strings.Contains(chunk.ID, pattern) {
			return nil, analyzer.ErrEngineFailed
		}
	}

	contextLines := chunk.ContextLineCount()

	result := &analyzer.Result{
		Tokens: len(chunk.DispatchText()) / 4,
	}

	for i, line := range strings.Split(chunk.Code, "\n") {
		if !strings.Contains(line, "// BUG") {
			continue
		}

		result.Findings = append(result.Findings, types.Finding{
			Line:        contextLines + i + 1,
			Category:    types.CategoryLogicErrors,
			Severity:    types.SeverityHigh,
			Description: "marker defect: " + strings.TrimSpace(line),
			Reasoning:   "planted for pipeline verification",
		})
	}

	return result, nil
}

func (m *MockAnalyzer) Engine() string { return "mock" }
func (m *MockAnalyzer) Model() string  { return m.model }
func (m *MockAnalyzer) Close() error   { return nil }
