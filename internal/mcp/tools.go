package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"fairsearch/internal/engine"
	"fairsearch/internal/vectorindex"
	"fairsearch/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602
	ErrorCodeInternalError = -32603
	ErrorCodeNotIndexed    = -32001
	ErrorCodeEmptyQuery    = -32002
)

// handleIndexDataset handles the index_dataset tool invocation.
func (s *Server) handleIndexDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	opts := engine.IndexOptions{
		Validate:          getBoolDefault(args, "validate", true),
		IncludeCompanions: getBoolDefault(args, "include_companions", true),
		ExtractArchives:   getBoolDefault(args, "extract_archives", true),
	}

	report, err := s.engine.IndexPath(ctx, path, opts)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := s.engine.Save(); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "saving index failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":     report.Indexed,
		"failed":      report.Failed,
		"duration_ms": report.Duration.Milliseconds(),
	}
	if len(report.Errors) > 0 {
		errs := report.Errors
		if len(errs) > 5 {
			response["error_count"] = len(errs)
			errs = errs[:5]
		}
		response["errors"] = errs
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchDatasets handles the search_datasets tool invocation.
func (s *Server) handleSearchDatasets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	topK := getIntDefault(args, "top_k", 10)
	if topK < 1 || topK > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "top_k must be between 1 and 100", map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}
	threshold := getFloatDefault(args, "threshold", vectorindex.NoThreshold)

	results, err := s.engine.Search(ctx, query, topK, threshold)
	if err != nil {
		code := ErrorCodeInternalError
		if errors.Is(err, types.ErrNoIndex) {
			code = ErrorCodeNotIndexed
		}
		return nil, newMCPError(code, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, len(results))
	for i, r := range results {
		items[i] = map[string]interface{}{
			"filepath":         r.Record.Filepath,
			"format":           r.Record.Format,
			"title":            r.Record.Title,
			"similarity_score": r.SimilarityScore,
		}
		if len(r.Record.CompanionDocs) > 0 {
			items[i]["companion_docs"] = len(r.Record.CompanionDocs)
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": items,
	})), nil
}

// handleFindSimilar handles the find_similar tool invocation.
func (s *Server) handleFindSimilar(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	topK := getIntDefault(args, "top_k", 10)

	results, err := s.engine.FindSimilar(path, topK)
	if err != nil {
		return nil, newMCPError(ErrorCodeNotIndexed, "similar search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, len(results))
	for i, r := range results {
		items[i] = map[string]interface{}{
			"filepath":         r.Record.Filepath,
			"format":           r.Record.Format,
			"similarity_score": r.SimilarityScore,
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"path":    path,
		"count":   len(results),
		"results": items,
	})), nil
}

// handleGetStats handles the get_stats tool invocation.
func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.engine.Stats()
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"entries":      stats.Index.Count,
		"unique_files": stats.Index.UniqueFiles,
		"dimension":    stats.Index.Dimension,
		"provider":     stats.Provider,
		"model":        stats.Model,
	})), nil
}

// handleValidateFile handles the validate_file tool invocation.
func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	result := s.validator.CheckSignature(path)
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"filepath":      result.Filepath,
		"valid":         result.IsValid,
		"detected_type": result.DetectedType,
		"expected_type": result.ExpectedType,
		"size":          result.SizeFormatted,
		"issues":        result.Issues,
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error.
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error.
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks that a path is absolute and exists.
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ErrPathNotFound
	} else if err != nil {
		return ErrPathNotReadable
	}
	return nil
}

// formatJSON formats a map as indented JSON.
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value.
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value.
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a float parameter with a default value.
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
)
