package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"fairsearch/internal/config"
	"fairsearch/internal/embedder"
	"fairsearch/internal/engine"
	"fairsearch/internal/relevance"
	"fairsearch/internal/validator"
)

const (
	// ServerName is the MCP server name.
	ServerName = "fairsearch"
	// ServerVersion is the current server version.
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp       *server.MCPServer
	engine    *engine.Engine
	validator *validator.Validator
}

// NewServer creates an MCP server backed by the persisted index.
func NewServer(cfg *config.Config) (*Server, error) {
	emb, err := embedder.New(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}

	var judge relevance.Judge
	if cfg.Judge.Enabled {
		judge = relevance.NewOllamaJudge(cfg.Judge)
	}

	eng, err := engine.Load(cfg, emb, judge)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	s := &Server{
		mcp:       server.NewMCPServer(ServerName, ServerVersion),
		engine:    eng,
		validator: validator.New(cfg),
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.engine.Close() }()
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(indexDatasetTool(), s.handleIndexDataset)
	s.mcp.AddTool(searchDatasetsTool(), s.handleSearchDatasets)
	s.mcp.AddTool(findSimilarTool(), s.handleFindSimilar)
	s.mcp.AddTool(getStatsTool(), s.handleGetStats)
	s.mcp.AddTool(validateFileTool(), s.handleValidateFile)
}
