package cli

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	stats := eng.Stats()
	cmd.Printf("Index directory: %s\n", cfg.IndexDir)
	cmd.Printf("Entries:         %d\n", stats.Index.Count)
	cmd.Printf("Unique files:    %d\n", stats.Index.UniqueFiles)
	cmd.Printf("Dimension:       %d\n", stats.Index.Dimension)
	cmd.Printf("Provider:        %s (%s)\n", stats.Provider, stats.Model)
	return nil
}
