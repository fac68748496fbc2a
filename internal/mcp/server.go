package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ApeachM/llm-code-reviewer-sub001/internal/analyzer"
	"github.com/ApeachM/llm-code-reviewer-sub001/internal/reviewer"
	"github.com/ApeachM/llm-code-reviewer-sub001/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "llmreview-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the review database
	DefaultDBPath = "~/.llmreview"
	// EnvCacheSize overrides the analysis result cache capacity
	EnvCacheSize = "LLMREVIEW_CACHE_SIZE"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	reviewer *reviewer.Reviewer
	analyzer analyzer.Analyzer
	config   *reviewer.Config // base config; per-call tool params override it
}

// NewServer creates a new MCP server instance
func NewServer(dbPath string) (*Server, error) {
	// Expand home directory if needed
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".llmreview")
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbFile := filepath.Join(dbPath, "reviews.db")

	store, err := storage.NewSQLiteStorage(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	cacheSize := 0
	if v, err := strconv.Atoi(os.Getenv(EnvCacheSize)); err == nil {
		cacheSize = v
	}
	eng := analyzer.NewOllamaAnalyzer("", "", analyzer.NewCache(cacheSize))

	cfg := reviewer.ConfigFromEnv()
	rev, err := reviewer.New(eng, store, cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize reviewer: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		storage:  store,
		reviewer: rev,
		analyzer: eng,
		config:   cfg,
	}

	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		_ = s.analyzer.Close()
		_ = s.storage.Close()
	}()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(reviewFileTool(), s.handleReviewFile)
	s.mcp.AddTool(getRunTool(), s.handleGetRun)
	s.mcp.AddTool(listRunsTool(), s.handleListRuns)
}
