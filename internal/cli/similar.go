package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var similarLimit int

var similarCmd = &cobra.Command{
	Use:   "similar [path]",
	Short: "Find data files similar to an indexed file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimilar,
}

func init() {
	similarCmd.Flags().IntVarP(&similarLimit, "limit", "n", 0, "maximum number of results (default from config)")
	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	results, err := eng.FindSimilar(args[0], similarLimit)
	if err != nil {
		return fmt.Errorf("similar search failed: %w", err)
	}
	return outputResultsTable(cmd, results)
}
