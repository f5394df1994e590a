package cli

import (
	"github.com/spf13/cobra"
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Remove duplicate index entries",
	Long: `Rebuilds the index keeping only the first entry for each filepath.
Re-indexing the same file appends a new entry; compaction reclaims the
space and makes the filepath map unambiguous again.`,
	Args: cobra.NoArgs,
	RunE: runCompact,
}

func init() {
	rootCmd.AddCommand(compactCmd)
}

func runCompact(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	removed, err := eng.Compact()
	if err != nil {
		return err
	}
	cmd.Printf("Removed %d duplicate entries\n", removed)
	return nil
}
