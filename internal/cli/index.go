package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fairsearch/internal/engine"
)

var (
	indexNoValidate      bool
	indexNoCompanions    bool
	indexSearchParent    bool
	indexExtractArchives bool
	indexNew             bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a data file, archive, or directory",
	Long: `Indexes scientific data files so they become searchable. The path may
be a single file, a zip/tar archive, or a directory tree. Companion
documentation found next to each data file is classified for relevance
and folded into the file's searchable text.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexNoValidate, "no-validate", false, "skip signature validation")
	indexCmd.Flags().BoolVar(&indexNoCompanions, "no-companions", false, "skip companion document discovery")
	indexCmd.Flags().BoolVar(&indexSearchParent, "search-parent", false, "also search the parent directory for companions")
	indexCmd.Flags().BoolVar(&indexExtractArchives, "extract-archives", true, "extract and index archives found in directories")
	indexCmd.Flags().BoolVar(&indexNew, "new", false, "start from an empty index instead of the persisted one")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	build := newEngine
	if indexNew {
		build = newFreshEngine
	}
	eng, err := build()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	opts := engine.IndexOptions{
		Validate:          !indexNoValidate,
		IncludeCompanions: !indexNoCompanions,
		SearchParent:      indexSearchParent,
		ExtractArchives:   indexExtractArchives,
	}

	report, err := eng.IndexPath(context.Background(), args[0], opts)
	if err != nil {
		return err
	}
	if err := eng.Save(); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	cmd.Printf("Indexed %d file(s) in %s\n", report.Indexed, report.Duration.Round(time.Millisecond))
	if report.HasErrors() {
		cmd.Printf("%d file(s) failed:\n", report.Failed)
		for _, fe := range report.Errors {
			cmd.Printf("  %s: %s\n", fe.Filepath, fe.Message)
		}
		return fmt.Errorf("%d file(s) failed to index", report.Failed)
	}
	return nil
}
