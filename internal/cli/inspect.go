package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fairsearch/internal/archive"
	"fairsearch/internal/companion"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [path]",
	Short: "Show archive contents or companion candidates without indexing",
	Long: `For an archive, lists its entries without extracting. For a data file
or a directory, lists the companion documents that indexing would
consider (READMEs, citation files, documentation, scripts).`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]

	if archive.IsArchive(path) {
		entries, err := archive.Structure(path)
		if err != nil {
			return err
		}
		cmd.Printf("%s: %d entries\n", path, len(entries))
		for _, e := range entries {
			cmd.Printf("  %s\n", e)
		}
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	finder := companion.NewFinder(cfg)
	var found *companion.Companions
	if info.IsDir() {
		found = finder.FindDirectoryCompanions(path)
	} else {
		found = finder.FindCompanions(path, companion.DefaultFindOptions())
	}

	if found.Total() == 0 {
		cmd.Println("No companion candidates found.")
		return nil
	}

	printGroup := func(label string, paths []string) {
		if len(paths) == 0 {
			return
		}
		cmd.Printf("%s:\n", label)
		for _, p := range paths {
			cmd.Printf("  %s\n", p)
		}
	}
	printGroup("READMEs", found.Readmes)
	printGroup("Citations", found.Citations)
	printGroup("Documentation", found.Documentation)
	printGroup("Scripts", found.Scripts)
	printGroup("Related data", found.RelatedData)
	return nil
}
