package types

import (
	"errors"
	"fmt"
)

// Severity levels reported by the analysis engine
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Finding represents a single issue reported by the analysis engine.
//
// Line is 1-indexed. As received from the engine it is relative to the
// chunk's dispatch text (context + code); after the dispatcher's remap it
// is relative to the original file. The remap is one-way: a Finding never
// carries both coordinate systems at once.
type Finding struct {
	Line         int
	Category     string
	Severity     string
	Description  string
	Reasoning    string
	SuggestedFix string // optional
}

// ValidateSeverity checks if the severity is one of the allowed values
func (f *Finding) ValidateSeverity() error {
	switch f.Severity {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSeverity, f.Severity)
	}
}

// Validate performs comprehensive validation of the finding
func (f *Finding) Validate() error {
	if f.Line <= 0 {
		return errors.New("finding line must be positive")
	}

	if f.Category == "" {
		return errors.New("finding category is required")
	}

	if f.Description == "" {
		return errors.New("finding description is required")
	}

	return f.ValidateSeverity()
}
