package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fairsearch/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check data files for corruption and format mismatches",
	Long: `Checks a file or every data file under a directory against known
magic byte signatures. Catches truncated downloads, HTML error pages
saved as data files, and extension/content mismatches.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	v := validator.New(cfg)

	info, err := os.Stat(args[0])
	if err != nil {
		return fmt.Errorf("stat %s: %w", args[0], err)
	}

	if info.IsDir() {
		return validateDirectory(cmd, v, args[0])
	}
	return validateFile(cmd, v, args[0])
}

func validateFile(cmd *cobra.Command, v *validator.Validator, path string) error {
	result := v.CheckSignature(path)

	if result.IsValid {
		cmd.Printf("OK: %s (%s, %s)\n", path, result.DetectedType, result.SizeFormatted)
		return nil
	}

	cmd.Printf("INVALID: %s\n", path)
	for _, issue := range result.Issues {
		cmd.Printf("  - %s\n", issue)
	}
	for _, fix := range validator.SuggestFixes(result) {
		cmd.Printf("  Suggestion: %s\n", fix)
	}
	return fmt.Errorf("validation failed for %s", path)
}

func validateDirectory(cmd *cobra.Command, v *validator.Validator, dir string) error {
	report, err := v.ValidateDirectory(dir)
	if err != nil {
		return err
	}

	cmd.Printf("Checked %d data file(s) under %s\n", report.TotalFiles, dir)
	cmd.Printf("  Valid:   %d\n", len(report.Valid))
	cmd.Printf("  Invalid: %d\n", len(report.Invalid))

	if len(report.Invalid) > 0 {
		cmd.Println("\nIssues:")
		for issue, count := range report.IssuesSummary {
			cmd.Printf("  %dx %s\n", count, issue)
		}
		cmd.Println("\nInvalid files:")
		for _, r := range report.Invalid {
			cmd.Printf("  %s\n", r.Filepath)
		}
		return fmt.Errorf("%d file(s) failed validation", len(report.Invalid))
	}
	return nil
}
