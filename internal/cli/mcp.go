package cli

import (
	"context"

	"github.com/spf13/cobra"

	"fairsearch/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server on stdio",
	Long: `Starts a Model Context Protocol server exposing index_dataset,
search_datasets, find_similar, get_stats and validate_file tools over
stdio, for use by LLM agents.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	srv, err := mcp.NewServer(cfg)
	if err != nil {
		return err
	}
	return srv.Serve(context.Background())
}
