package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexDatasetTool returns the tool definition for index_dataset.
func indexDatasetTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_dataset",
		Description: "Index a scientific data file, archive, or directory so it becomes searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a data file (NetCDF/HDF5/GRIB), archive, or directory",
				},
				"validate": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, verify file signatures before indexing",
					"default":     true,
				},
				"include_companions": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, discover and index companion documentation (READMEs, citations, scripts)",
					"default":     true,
				},
				"extract_archives": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, extract and index archives found inside directories",
					"default":     true,
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchDatasetsTool returns the tool definition for search_datasets.
func searchDatasetsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_datasets",
		Description: "Search indexed scientific data files with a natural language query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Minimum similarity score; omit to keep all results",
					"minimum":     -1.0,
					"maximum":     1.0,
				},
			},
			Required: []string{"query"},
		},
	}
}

// findSimilarTool returns the tool definition for find_similar.
func findSimilarTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_similar",
		Description: "Find indexed data files most similar to an already-indexed file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed data file",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"path"},
		},
	}
}

// getStatsTool returns the tool definition for get_stats.
func getStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_stats",
		Description: "Report index statistics: entry count, unique files, embedding dimension",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// validateFileTool returns the tool definition for validate_file.
func validateFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "validate_file",
		Description: "Check a file's magic bytes and size against its claimed scientific data format",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the file to validate",
				},
			},
			Required: []string{"path"},
		},
	}
}
