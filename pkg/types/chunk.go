package types

import (
	"errors"
	"strings"
)

// NodeKind describes the syntactic construct a chunk was derived from
type NodeKind string

const (
	NodeFunction  NodeKind = "function"
	NodeClass     NodeKind = "class"
	NodeStruct    NodeKind = "struct"
	NodeNamespace NodeKind = "namespace"

	// NodeFallback marks chunks produced by fixed-size line windowing when
	// syntax parsing failed or found no top-level declarations
	NodeFallback NodeKind = "fallback-line-range"
)

// Chunk represents one independently analyzable unit of a source file
type Chunk struct {
	// Identification
	ID       string // e.g. "server.cpp:handleRequest:45-120"
	FilePath string

	// Location in the original file, 1-indexed and inclusive
	StartLine int
	EndLine   int

	// Content
	Code    string // exact text of the declaration, no file-level context
	Context string // file-level imports/usings shared by every chunk; may be empty

	// Metadata
	NodeKind   NodeKind
	SplitIndex int // 1-based part number when an oversized declaration was split; 0 otherwise
}

// CountLines returns the number of lines in s, treating empty text as zero lines
func CountLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// ContextLineCount returns the number of lines in the chunk's context
func (c *Chunk) ContextLineCount() int {
	return CountLines(c.Context)
}

// TotalLines returns the combined line count of context and code,
// which is what chunk size limits are measured against
func (c *Chunk) TotalLines() int {
	return CountLines(c.Context) + CountLines(c.Code)
}

// DispatchText builds the exact text handed to the analysis engine:
// context and code separated by a blank line, or code alone when there
// is no context
func (c *Chunk) DispatchText() string {
	if c.Context == "" {
		return c.Code
	}
	return c.Context + "\n\n" + c.Code
}

// ValidateKind checks if the node kind is valid
func (c *Chunk) ValidateKind() error {
	switch c.NodeKind {
	case NodeFunction, NodeClass, NodeStruct, NodeNamespace, NodeFallback:
		return nil
	default:
		return errors.New("invalid node kind")
	}
}

// Validate performs comprehensive validation of the chunk
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return errors.New("chunk ID is required")
	}

	if c.Code == "" {
		return errors.New("chunk code cannot be empty")
	}

	if c.StartLine <= 0 || c.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}

	if c.StartLine > c.EndLine {
		return errors.New("start line must be before or equal to end line")
	}

	return c.ValidateKind()
}
