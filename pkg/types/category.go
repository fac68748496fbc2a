package types

import (
	"fmt"
	"strings"
)

// Allowed finding categories. These focus on issues that require
// understanding code intent and cannot be caught by static or dynamic
// analysis tools.
const (
	CategoryLogicErrors           = "logic-errors"
	CategoryAPIMisuse             = "api-misuse"
	CategorySemanticInconsistency = "semantic-inconsistency"
	CategoryEdgeCaseHandling      = "edge-case-handling"
	CategoryCodeIntentMismatch    = "code-intent-mismatch"
)

// AllowedCategories lists every category accepted into merge results
var AllowedCategories = []string{
	CategoryLogicErrors,
	CategoryAPIMisuse,
	CategorySemanticInconsistency,
	CategoryEdgeCaseHandling,
	CategoryCodeIntentMismatch,
}

// categoryAliases maps common LLM category variations to allowed categories
var categoryAliases = map[string]string{
	// Direct mappings
	CategoryLogicErrors:           CategoryLogicErrors,
	CategoryAPIMisuse:             CategoryAPIMisuse,
	CategorySemanticInconsistency: CategorySemanticInconsistency,
	CategoryEdgeCaseHandling:      CategoryEdgeCaseHandling,
	CategoryCodeIntentMismatch:    CategoryCodeIntentMismatch,

	// Variations -> edge-case-handling
	"code-quality":     CategoryEdgeCaseHandling,
	"error-handling":   CategoryEdgeCaseHandling,
	"null-check":       CategoryEdgeCaseHandling,
	"boundary-check":   CategoryEdgeCaseHandling,
	"division-by-zero": CategoryEdgeCaseHandling,
	"empty-check":      CategoryEdgeCaseHandling,
	"input-validation": CategoryEdgeCaseHandling,

	// Variations -> logic-errors
	"logic-error":      CategoryLogicErrors,
	"logical-error":    CategoryLogicErrors,
	"off-by-one":       CategoryLogicErrors,
	"boolean-logic":    CategoryLogicErrors,
	"integer-division": CategoryLogicErrors,
	"arithmetic-error": CategoryLogicErrors,
	"operator-error":   CategoryLogicErrors,

	// Variations -> api-misuse
	"resource-leak":   CategoryAPIMisuse,
	"memory-leak":     CategoryAPIMisuse,
	"file-leak":       CategoryAPIMisuse,
	"api-usage":       CategoryAPIMisuse,
	"cleanup-missing": CategoryAPIMisuse,

	// Variations -> semantic-inconsistency
	"naming-issue":           CategorySemanticInconsistency,
	"side-effect":            CategorySemanticInconsistency,
	"documentation-mismatch": CategorySemanticInconsistency,
	"misleading-name":        CategorySemanticInconsistency,

	// Variations -> code-intent-mismatch
	"requirement-mismatch":   CategoryCodeIntentMismatch,
	"specification-mismatch": CategoryCodeIntentMismatch,
}

// NormalizeCategory maps a raw category string from the analysis engine
// onto one of the allowed categories. Categories must be normalized before
// findings reach the merger, since (line, category) is its grouping key.
// Returns ErrUnknownCategory if the value cannot be normalized.
func NormalizeCategory(category string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(category))

	if mapped, ok := categoryAliases[normalized]; ok {
		return mapped, nil
	}

	// Underscore/hyphen variants
	if mapped, ok := categoryAliases[strings.ReplaceAll(normalized, "_", "-")]; ok {
		return mapped, nil
	}

	// Keyword-based fuzzy matching for free-form engine output
	switch {
	case containsAny(normalized, "logic", "boolean", "operator"):
		return CategoryLogicErrors, nil
	case containsAny(normalized, "api", "resource", "leak"):
		return CategoryAPIMisuse, nil
	case containsAny(normalized, "semantic", "naming", "side"):
		return CategorySemanticInconsistency, nil
	case containsAny(normalized, "edge", "boundary", "empty", "null"):
		return CategoryEdgeCaseHandling, nil
	case containsAny(normalized, "intent", "requirement", "mismatch"):
		return CategoryCodeIntentMismatch, nil
	case containsAny(normalized, "quality", "check", "validation"):
		return CategoryEdgeCaseHandling, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
