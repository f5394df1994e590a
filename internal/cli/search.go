package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fairsearch/internal/vectorindex"
	"fairsearch/pkg/types"
)

var (
	searchLimit     int
	searchThreshold float64
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed data files",
	Long: `Embeds the query and returns the indexed data files whose combined
metadata and companion text is most similar to it.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "top-k", "k", 0, "maximum number of results (default from config)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", vectorindex.NoThreshold, "minimum similarity score (default: keep all results)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	results, err := eng.Search(context.Background(), args[0], searchLimit, searchThreshold)
	if err != nil {
		if errors.Is(err, types.ErrNoIndex) {
			return fmt.Errorf("no index found, run 'fairsearch index <path>' first")
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputResultsJSON(cmd, results)
	}
	return outputResultsTable(cmd, results)
}

func outputResultsJSON(cmd *cobra.Command, results []types.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputResultsTable(cmd *cobra.Command, results []types.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		title := r.Record.Title
		if title == "" {
			title = r.Record.Filename
		}
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, title, r.SimilarityScore)
		cmd.Printf("      %s\n", r.Record.Filepath)
		if r.Record.Format != "" {
			cmd.Printf("      Format: %s", r.Record.Format)
			if r.Record.FileSize > 0 {
				cmd.Printf("  Size: %d bytes", r.Record.FileSize)
			}
			cmd.Println()
		}
		if n := len(r.Record.CompanionDocs); n > 0 {
			cmd.Printf("      Companions: %d document(s)\n", n)
		}
		if r.Record.ArchiveContext != nil {
			cmd.Printf("      From archive: %s\n", r.Record.ArchiveContext.ArchivePath)
		}
		cmd.Println()
	}
	return nil
}
