package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// reviewFileTool returns the tool definition for review_file
func reviewFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "review_file",
		Description: "Review a source file for logic, API, and intent-level defects using a local LLM",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the source file to review (C++, Python, or Go)",
				},
				"max_chunk_lines": map[string]interface{}{
					"type":        "integer",
					"description": "Per-chunk line budget, context included (default 200)",
					"minimum":     1,
				},
				"max_concurrency": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum parallel engine calls (default 4)",
					"minimum":     1,
				},
				"timeout_seconds": map[string]interface{}{
					"type":        "integer",
					"description": "Per-chunk analysis deadline in seconds (default 120)",
					"minimum":     1,
				},
			},
			Required: []string{"path"},
		},
	}
}

// getRunTool returns the tool definition for get_run
func getRunTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_run",
		Description: "Retrieve a stored review run with its findings by run ID",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "integer",
					"description": "ID of the review run, as returned by review_file or list_runs",
					"minimum":     1,
				},
			},
			Required: []string{"run_id"},
		},
	}
}

// listRunsTool returns the tool definition for list_runs
func listRunsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_runs",
		Description: "List recent review runs, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Only list runs for this file path (optional)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs to return (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
			},
		},
	}
}
