package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fairsearch/internal/engine"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Re-index every file in the index from scratch",
	Long: `Runs the full pipeline again for every unique file currently in the
index. Useful after changing the embedding model or when companion
documents have changed. Files that no longer exist are dropped.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	report, err := eng.Rebuild(context.Background(), engine.DefaultIndexOptions())
	if err != nil {
		return err
	}

	cmd.Printf("Rebuilt index with %d file(s) in %s\n", report.Indexed, report.Duration.Round(time.Millisecond))
	if report.HasErrors() {
		for _, fe := range report.Errors {
			cmd.Printf("  %s: %s\n", fe.Filepath, fe.Message)
		}
		return fmt.Errorf("%d file(s) failed to re-index", report.Failed)
	}
	return nil
}
