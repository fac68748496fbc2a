// Package chunker divides source files into independently analyzable
// chunks for LLM review.
//
// Large files do not fit in a single analysis call, so the chunker
// splits them at syntactic boundaries (functions, classes, structs,
// namespaces) using tree-sitter, preserving the file-level context
// (includes, usings, imports) each chunk needs to be understood in
// isolation.
//
// # Basic Usage
//
//	c := chunker.New()
//	chunks, err := c.ChunkFile("service.cpp", source, 200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, chunk := range chunks {
//	    fmt.Printf("%s: lines %d-%d\n", chunk.ID, chunk.StartLine, chunk.EndLine)
//	}
//
// # Chunking Strategy
//
//  1. Parse the file and extract file-level context nodes plus top-level
//     declarations.
//  2. Emit one chunk per declaration, sharing the same context text.
//  3. Split any chunk whose combined context+code line count exceeds the
//     limit into consecutive line windows carrying a SplitIndex; the
//     sub-ranges are not re-parsed.
//  4. When parsing fails, or the file has no top-level declarations
//     (global statements only), chunk the whole file into fixed-size
//     line windows with empty context and kind "fallback-line-range".
//
// Chunks derived from declarations have non-overlapping line ranges
// sorted by start line; gaps between declarations are allowed and are
// never double-covered by the fallback path.
//
// # Chunk Identifiers
//
// Chunk IDs are stable, human-readable trace keys:
//
//	service.cpp:handleRequest:45-120        declaration chunk
//	service.cpp:handleRequest:45-120_part2  split part
//	service.cpp:lines_1-200                 fallback window
//
// # Failure Behavior
//
// ChunkFile never fails on malformed input; every parse problem resolves
// to the fallback path. The only returned error is a non-positive
// maxChunkLines, which is a caller bug.
package chunker
