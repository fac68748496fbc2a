// Package mcp implements the Model Context Protocol (MCP) server for LLMReview.
//
// The MCP server exposes three tools to AI coding assistants:
//   - review_file: Review a source file with a local LLM
//   - get_run: Retrieve a stored review run with its findings
//   - list_runs: List recent review runs
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates via standard input/output; all logging goes
// to stderr to keep the protocol stream clean.
//
// # Tool: review_file
//
// Review a C++, Python, or Go source file:
//
//	Request:
//	{
//	  "name": "review_file",
//	  "arguments": {
//	    "path": "/path/to/server.cpp"
//	  }
//	}
//
// Optional arguments max_chunk_lines, max_concurrency, and
// timeout_seconds override the server's environment configuration for
// a single call.
//
//	Response:
//	{
//	  "run_id": 17,
//	  "file": "/path/to/server.cpp",
//	  "model": "qwen2.5-coder:7b",
//	  "chunks": 4,
//	  "failed_chunks": 0,
//	  "total_tokens": 5120,
//	  "duration_ms": 8431,
//	  "findings": [
//	    {
//	      "line": 142,
//	      "category": "edge-case-handling",
//	      "severity": "high",
//	      "description": "division by zero when count is 0",
//	      "reasoning": "count comes from user input and is never checked"
//	    }
//	  ]
//	}
//
// Finding line numbers are always file coordinates; chunking is
// invisible to the caller.
//
// # Tool: get_run
//
// Retrieve a persisted run by ID:
//
//	Request:  {"name": "get_run", "arguments": {"run_id": 17}}
//	Response: the run with its findings and chunk IDs
//
// # Tool: list_runs
//
// List recent runs, optionally filtered by file path:
//
//	Request:  {"name": "list_runs", "arguments": {"path": "/path/to/server.cpp", "limit": 20}}
//	Response: {"runs": [...], "count": 3}
//
// # Error Codes
//
// Tools return structured MCP errors:
//
//	-32602  invalid parameters
//	-32603  internal error
//	-32001  run not found
//	-32002  every chunk failed analysis
//	-32003  file too large to review
//
// # Configuration
//
// The server is configured through environment variables:
//
//	LLMREVIEW_DB_PATH            review database directory (default ~/.llmreview)
//	LLMREVIEW_OLLAMA_URL         Ollama server URL (default http://localhost:11434)
//	LLMREVIEW_MODEL              model name (default qwen2.5-coder:7b)
//	LLMREVIEW_MAX_CHUNK_LINES    per-chunk line budget (default 200)
//	LLMREVIEW_MAX_CONCURRENCY    parallel engine calls (default 4)
//	LLMREVIEW_CHUNK_TIMEOUT_SEC  per-chunk deadline (default 120)
//	LLMREVIEW_CACHE_SIZE         analysis result cache entries (default 1000)
package mcp
