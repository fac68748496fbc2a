package analyzer

import (
	"fmt"
	"strings"

	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

// systemPrompt steers the engine toward intent-level defects and pins
// the output contract. The category list is generated from the allowed
// set so prompt and validation cannot drift apart.
var systemPrompt = fmt.Sprintf(`You are an expert code reviewer. Find defects that require understanding what the code is meant to do: bugs a compiler, linter, or static analyzer would miss.

Report each issue with a category from this exact list:
%s

Severity must be one of: critical, high, medium, low.

Respond with ONLY a JSON array. Each element:
{"line": <1-based line number in the provided text>, "category": "<category>", "severity": "<severity>", "description": "<one sentence>", "reasoning": "<why this is a defect>", "suggested_fix": "<optional>"}

If the code has no issues, respond with [].
Do not report style, formatting, or naming preferences.`,
	"- "+strings.Join(types.AllowedCategories, "\n- "))

// buildUserPrompt wraps the chunk's dispatch text for review. The
// language tag helps smaller models settle on the right syntax.
func buildUserPrompt(chunk types.Chunk, language string) string {
	if language == "" {
		language = "text"
	}

	var b strings.Builder
	b.WriteString("Analyze this code for issues:\n\n```")
	b.WriteString(language)
	b.WriteString("\n")
	b.WriteString(chunk.DispatchText())
	b.WriteString("\n```\n\nRespond with a JSON array of issues found. If no issues, respond with [].")
	return b.String()
}
