// Package validator implements magic-byte based sanity checks gating
// what enters the index. It flags truncated downloads, HTML error pages
// saved under data extensions, and extension/content mismatches.
package validator

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"fairsearch/internal/config"
)

// Result holds the outcome of a signature check. A Result never carries
// an error for missing or unreadable files; those surface as issues.
type Result struct {
	Filepath      string   `json:"filepath"`
	Exists        bool     `json:"exists"`
	Size          int64    `json:"size"`
	SizeFormatted string   `json:"size_formatted,omitempty"`
	DetectedType  string   `json:"detected_type,omitempty"`
	ExpectedType  string   `json:"expected_type,omitempty"`
	IsValid       bool     `json:"is_valid"`
	Issues        []string `json:"issues,omitempty"`
}

// DirectoryReport summarizes validation across a directory tree.
type DirectoryReport struct {
	Directory     string         `json:"directory"`
	TotalFiles    int            `json:"total_files"`
	Valid         []Result       `json:"valid"`
	Invalid       []Result       `json:"invalid"`
	IssuesSummary map[string]int `json:"issues_summary"`
}

// Validator checks data files against a fixed magic byte table.
type Validator struct {
	magicBytes     map[string][][]byte
	dataExtensions []string
	minFileSize    int64
	maxHeaderBytes int
}

// New creates a Validator from the given configuration.
func New(cfg *config.Config) *Validator {
	return &Validator{
		magicBytes:     cfg.MagicBytes,
		dataExtensions: cfg.DataExtensions,
		minFileSize:    cfg.MinFileSize,
		maxHeaderBytes: cfg.MaxHeaderBytes,
	}
}

// expectedType maps a file extension to the format the file claims to be.
func expectedType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nc", ".nc4":
		return "netcdf"
	case ".hdf", ".hdf5", ".h5":
		return "hdf5"
	case ".grb", ".grb2", ".grib", ".grib2":
		return "grib"
	}
	return ""
}

// CheckSignature validates a single file. It never returns an error:
// a missing or unreadable file yields a Result with issues instead.
func (v *Validator) CheckSignature(path string) Result {
	result := Result{Filepath: path}

	info, err := os.Stat(path)
	if err != nil {
		result.Issues = append(result.Issues, "File does not exist")
		return result
	}
	result.Exists = true
	result.Size = info.Size()
	result.SizeFormatted = FormatSize(result.Size)

	if result.Size < v.minFileSize {
		result.Issues = append(result.Issues, fmt.Sprintf("File too small (%d bytes)", result.Size))
		return result
	}

	result.ExpectedType = expectedType(path)

	header, err := readHeader(path, v.maxHeaderBytes)
	if err != nil {
		result.Issues = append(result.Issues, fmt.Sprintf("Cannot read file: %v", err))
		return result
	}

	result.DetectedType = v.detectType(header)

	switch {
	case result.DetectedType == "html":
		result.Issues = append(result.Issues, "File is HTML (likely download error page)")
	case result.DetectedType == "xml":
		result.Issues = append(result.Issues, "File is XML (check if error response)")
	case result.ExpectedType != "" && result.DetectedType != "":
		if typesCompatible(result.ExpectedType, result.DetectedType) {
			result.IsValid = true
		} else {
			result.Issues = append(result.Issues, fmt.Sprintf(
				"Type mismatch: expected %s, detected %s",
				result.ExpectedType, result.DetectedType))
		}
	case result.ExpectedType != "":
		result.Issues = append(result.Issues, fmt.Sprintf(
			"Cannot detect valid %s signature", result.ExpectedType))
	default:
		// Unknown extension: accept anything with a recognized signature.
		result.IsValid = result.DetectedType != ""
		if !result.IsValid {
			result.Issues = append(result.Issues, "Unknown file type")
		}
	}

	return result
}

// typesCompatible reports whether a detected type satisfies an expected
// type. NetCDF-4 files are HDF5 containers, so an expected netcdf file
// detected as hdf5 is valid.
func typesCompatible(expected, detected string) bool {
	if expected == detected {
		return true
	}
	return expected == "netcdf" && detected == "hdf5"
}

// detectType matches the header against the magic byte table. Scientific
// formats are tried before generic ones so an HDF5 file is not reported
// as something else.
func (v *Validator) detectType(header []byte) string {
	order := []string{"netcdf", "hdf5", "grib", "html", "xml", "pdf", "zip", "gzip"}
	for _, fileType := range order {
		for _, sig := range v.magicBytes[fileType] {
			if bytes.HasPrefix(header, sig) {
				return fileType
			}
		}
	}
	return ""
}

func readHeader(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, n)
	read, err := f.Read(header)
	if err != nil && read == 0 {
		return nil, err
	}
	return header[:read], nil
}

// QuickValidate is a convenience wrapper returning a pass/fail and a
// one-line message for CLI and engine use.
func (v *Validator) QuickValidate(path string) (bool, string) {
	result := v.CheckSignature(path)
	if result.IsValid {
		return true, fmt.Sprintf("Valid %s file", result.DetectedType)
	}
	return false, "Invalid: " + strings.Join(result.Issues, "; ")
}

// ValidateDirectory checks every data file under directory, recursively.
func (v *Validator) ValidateDirectory(directory string) (*DirectoryReport, error) {
	report := &DirectoryReport{
		Directory:     directory,
		IssuesSummary: make(map[string]int),
	}

	err := filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !hasExtension(path, v.dataExtensions) {
			return nil
		}

		report.TotalFiles++
		result := v.CheckSignature(path)
		if result.IsValid {
			report.Valid = append(report.Valid, result)
		} else {
			report.Invalid = append(report.Invalid, result)
			for _, issue := range result.Issues {
				report.IssuesSummary[issue]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", directory, err)
	}
	return report, nil
}

// SuggestFixes returns remediation hints for an invalid result.
func SuggestFixes(result Result) []string {
	var suggestions []string
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			suggestions = append(suggestions, s)
		}
	}

	for _, issue := range result.Issues {
		switch {
		case strings.Contains(issue, "HTML"):
			add("Re-download the file. The URL may have returned an error page.")
		case strings.Contains(issue, "Type mismatch"):
			add("Rename file with correct extension or verify file source.")
		case strings.Contains(issue, "too small"):
			add("File appears truncated. Try re-downloading.")
		case strings.Contains(issue, "Cannot detect"):
			add("File may be corrupted. Verify with file provider.")
		}
	}
	return suggestions
}

// FormatSize renders a byte count in human-readable form.
func FormatSize(size int64) string {
	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if value < 1024.0 {
			return fmt.Sprintf("%.2f %s", value, unit)
		}
		value /= 1024.0
	}
	return fmt.Sprintf("%.2f PB", value)
}

func hasExtension(path string, extensions []string) bool {
	lower := strings.ToLower(path)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
