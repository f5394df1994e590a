package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	listJSON   bool
	listOffset int
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all indexed data files",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output records as JSON")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "skip the first N entries")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "show at most N entries (0 = all)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	records := eng.List()
	total := len(records)

	if listOffset > 0 {
		if listOffset >= len(records) {
			records = nil
		} else {
			records = records[listOffset:]
		}
	}
	if listLimit > 0 && listLimit < len(records) {
		records = records[:listLimit]
	}

	if listJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal records: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if total == 0 {
		cmd.Println("Index is empty.")
		return nil
	}
	for i, rec := range records {
		cmd.Printf("  [%d] %s (%s)\n", listOffset+i, rec.Filepath, rec.Format)
	}
	cmd.Printf("\nShowing %d of %d entries\n", len(records), total)
	return nil
}
