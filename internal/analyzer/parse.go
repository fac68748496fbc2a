package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

// rawFinding mirrors the JSON contract in the system prompt
type rawFinding struct {
	Line         int    `json:"line"`
	Category     string `json:"category"`
	Severity     string `json:"severity"`
	Description  string `json:"description"`
	Reasoning    string `json:"reasoning"`
	SuggestedFix string `json:"suggested_fix"`
}

// parseFindings extracts validated findings from raw engine output.
// Engines wrap the JSON in prose or markdown fences more often than
// not, so the array is located positionally rather than decoded
// directly. Individual malformed findings are skipped; only a response
// with no recognizable array at all is an error.
func parseFindings(response string) ([]types.Finding, error) {
	arr, ok := extractJSONArray(response)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON array in response", ErrMalformedResponse)
	}

	var raw []rawFinding
	if err := json.Unmarshal([]byte(arr), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	findings := make([]types.Finding, 0, len(raw))
	for _, r := range raw {
		if r.Line <= 0 || r.Description == "" {
			continue
		}

		category, err := types.NormalizeCategory(r.Category)
		if err != nil {
			// An unmappable category means the engine invented an issue
			// class we do not track; drop the finding
			continue
		}

		finding := types.Finding{
			Line:         r.Line,
			Category:     category,
			Severity:     normalizeSeverity(r.Severity),
			Description:  r.Description,
			Reasoning:    r.Reasoning,
			SuggestedFix: r.SuggestedFix,
		}

		findings = append(findings, finding)
	}

	return findings, nil
}

// normalizeSeverity lowercases and validates a severity, defaulting
// unknown values to medium rather than dropping the finding
func normalizeSeverity(severity string) string {
	s := strings.ToLower(strings.TrimSpace(severity))
	switch s {
	case types.SeverityCritical, types.SeverityHigh, types.SeverityMedium, types.SeverityLow:
		return s
	default:
		return types.SeverityMedium
	}
}

// extractJSONArray returns the first top-level JSON array in s. It
// tracks string literals and escapes so brackets inside finding text do
// not break the match.
func extractJSONArray(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
