// Package analyzer turns chunk text into findings using a local LLM
// engine.
//
// The only engine currently implemented is Ollama, reached over its
// chat API with a fixed system prompt that pins the JSON output
// contract. Responses are parsed defensively: the first JSON array is
// extracted from whatever prose or markdown surrounds it, individual
// malformed findings are dropped, and categories are normalized onto
// the allowed set before anything reaches the merger.
//
// # Basic Usage
//
//	cache := analyzer.NewCache(1000)
//	a := analyzer.NewOllamaAnalyzer("", "", cache)
//	defer a.Close()
//
//	result, err := a.AnalyzeChunk(ctx, chunk)
//	if err != nil {
//	    log.Printf("chunk %s failed: %v", chunk.ID, err)
//	}
//
// # Caching
//
// Results are cached in memory keyed by SHA-256 of (model, dispatch
// text). Re-reviewing a file whose chunks have not changed costs no
// engine calls and reports zero tokens for the cached chunks.
//
// # Retry Behavior
//
// Engine calls retry up to 3 times with exponential backoff (500ms
// base, 2x multiplier, 10s cap). Context cancellation stops retrying
// immediately.
package analyzer
