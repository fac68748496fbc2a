// Package types provides shared type definitions for the chunked review
// pipeline.
//
// This package defines the domain types that flow between the chunker,
// dispatcher, and merger: chunks, findings, per-chunk outcomes, and the
// final merged result.
//
// # Core Types
//
// Chunk represents one independently analyzable unit of a source file,
// carrying the declaration text plus shared file-level context:
//
//	chunk := &types.Chunk{
//	    ID:        "server.cpp:handleRequest:45-120",
//	    StartLine: 45,
//	    EndLine:   120,
//	    Code:      declarationText,
//	    Context:   includes,
//	    NodeKind:  types.NodeFunction,
//	}
//
// Finding represents a single issue reported by the analysis engine.
// Its Line field is chunk-local as received and file-local after the
// dispatcher's remap.
//
// ChunkOutcome records the result of analyzing one chunk, success or
// failure. MergedResult is the deduplicated, line-ordered aggregate for
// the whole file.
//
// # Category Normalization
//
// The analysis engine reports categories as free-form strings. Because
// (line, category) is the merger's deduplication key, categories are
// normalized onto a fixed set at the boundary:
//
//	category, err := types.NormalizeCategory("logic-error")
//	// category == types.CategoryLogicErrors
//
// Unrecognized categories are rejected with ErrUnknownCategory before
// they can pollute the grouping key.
//
// # Validation
//
// Domain types implement validation methods to ensure data integrity:
//
//	if err := chunk.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := finding.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package types
