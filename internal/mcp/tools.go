package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ApeachM/llm-code-reviewer-sub001/internal/reviewer"
	"github.com/ApeachM/llm-code-reviewer-sub001/internal/storage"
	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeRunNotFound    = -32001 // No run with the given ID
	ErrorCodeAnalysisFailed = -32002 // Every chunk of the file failed analysis
	ErrorCodeFileTooLarge   = -32003 // File exceeds the review size limit
)

// handleReviewFile handles the review_file tool invocation
func (s *Server) handleReviewFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validateFile(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	rev := s.reviewer
	if cfg, ok := reviewConfigOverrides(args, s.config); ok {
		var err error
		rev, err = reviewer.New(s.analyzer, s.storage, cfg)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid review parameters", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	review, err := rev.ReviewFile(ctx, path)
	if err != nil {
		switch {
		case errors.Is(err, reviewer.ErrAllChunksFailed):
			return nil, newMCPError(ErrorCodeAnalysisFailed, "analysis failed for every chunk", map[string]interface{}{
				"error": err.Error(),
			})
		case errors.Is(err, reviewer.ErrFileTooLarge):
			return nil, newMCPError(ErrorCodeFileTooLarge, "file too large to review", map[string]interface{}{
				"error": err.Error(),
			})
		default:
			return nil, newMCPError(ErrorCodeInternalError, "review failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	result := review.Result
	response := map[string]interface{}{
		"run_id":        review.RunID,
		"file":          review.FilePath,
		"model":         review.Model,
		"chunks":        result.ChunkCount,
		"failed_chunks": result.FailedChunkCount,
		"total_tokens":  result.TotalTokens,
		"duration_ms":   review.Duration.Milliseconds(),
		"findings":      findingsPayload(result.Findings),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetRun handles the get_run tool invocation
func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	runID := getIntDefault(args, "run_id", 0)
	if runID <= 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "run_id parameter is required", map[string]interface{}{
			"param":  "run_id",
			"reason": "missing or not positive",
		})
	}

	run, err := s.storage.GetRun(ctx, int64(runID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeRunNotFound, "run not found", map[string]interface{}{
			"run_id": runID,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load run", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(runPayload(run, true))), nil
}

// handleListRuns handles the list_runs tool invocation
func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	path := getStringDefault(args, "path", "")
	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	runs, err := s.storage.ListRuns(ctx, path, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list runs", map[string]interface{}{
			"error": err.Error(),
		})
	}

	payload := make([]interface{}, 0, len(runs))
	for _, run := range runs {
		payload = append(payload, runPayload(run, false))
	}

	response := map[string]interface{}{
		"runs":  payload,
		"count": len(runs),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// reviewConfigOverrides merges per-call tuning parameters over the
// server's base config. ok is false when the call carries no overrides,
// so the shared reviewer can be used as-is.
func reviewConfigOverrides(args map[string]interface{}, base *reviewer.Config) (*reviewer.Config, bool) {
	maxChunkLines := getIntDefault(args, "max_chunk_lines", 0)
	maxConcurrency := getIntDefault(args, "max_concurrency", 0)
	timeoutSec := getIntDefault(args, "timeout_seconds", 0)

	if maxChunkLines == 0 && maxConcurrency == 0 && timeoutSec == 0 {
		return nil, false
	}

	cfg := &reviewer.Config{}
	if base != nil {
		*cfg = *base
	}
	if maxChunkLines != 0 {
		cfg.MaxChunkLines = maxChunkLines
	}
	if maxConcurrency != 0 {
		cfg.MaxConcurrency = maxConcurrency
	}
	if timeoutSec != 0 {
		cfg.ChunkTimeout = time.Duration(timeoutSec) * time.Second
	}

	return cfg, true
}

// Helper functions

// runPayload formats a stored run for tool output
func runPayload(run *storage.Run, includeFindings bool) map[string]interface{} {
	payload := map[string]interface{}{
		"run_id":        run.ID,
		"file":          run.FilePath,
		"model":         run.Model,
		"chunks":        run.ChunkCount,
		"failed_chunks": run.FailedChunkCount,
		"total_tokens":  run.TotalTokens,
		"latency_ms":    run.TotalLatency.Milliseconds(),
		"created_at":    run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	if includeFindings {
		payload["chunk_ids"] = run.ChunkIDs
		payload["findings"] = findingsPayload(run.Findings)
	} else {
		payload["finding_count"] = len(run.Findings)
	}

	return payload
}

// findingsPayload formats findings for tool output
func findingsPayload(findings []types.Finding) []interface{} {
	payload := make([]interface{}, 0, len(findings))
	for _, f := range findings {
		entry := map[string]interface{}{
			"line":        f.Line,
			"category":    f.Category,
			"severity":    f.Severity,
			"description": f.Description,
			"reasoning":   f.Reasoning,
		}
		if f.SuggestedFix != "" {
			entry["suggested_fix"] = f.SuggestedFix
		}
		payload = append(payload, entry)
	}
	return payload
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validateFile checks that a path points to a readable regular file
func validateFile(path string) error {
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if info.IsDir() {
		return ErrPathIsDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrPathIsDirectory = errors.New("path is a directory, not a file")
)
