package cli

import (
	"github.com/spf13/cobra"

	"fairsearch/internal/embedder"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("fairsearch %s\n", version)
		cmd.Printf("Build Time: %s\n", buildTime)
		cmd.Printf("Build Mode: %s\n", embedder.BuildMode)
		cmd.Printf("SQLite Driver: %s\n", embedder.DriverName)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
