package validator

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairsearch/internal/config"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// padded returns a header followed by zero padding past the minimum size.
func padded(header string) []byte {
	buf := make([]byte, 256)
	copy(buf, header)
	return buf
}

func newValidator() *Validator {
	return New(config.Default())
}

func TestCheckSignature(t *testing.T) {
	dir := t.TempDir()
	v := newValidator()

	tests := []struct {
		name      string
		file      string
		content   []byte
		wantValid bool
		wantIssue string
	}{
		{
			name:      "classic netcdf",
			file:      "ocean.nc",
			content:   padded("CDF\x01"),
			wantValid: true,
		},
		{
			name:      "netcdf 64-bit offset",
			file:      "ocean64.nc",
			content:   padded("CDF\x02"),
			wantValid: true,
		},
		{
			name:      "netcdf4 is an hdf5 container",
			file:      "modern.nc",
			content:   padded("\x89HDF\r\n\x1a\n"),
			wantValid: true,
		},
		{
			name:      "hdf5",
			file:      "data.h5",
			content:   padded("\x89HDF\r\n\x1a\n"),
			wantValid: true,
		},
		{
			name:      "grib",
			file:      "forecast.grb2",
			content:   padded("GRIB"),
			wantValid: true,
		},
		{
			name:      "html error page saved as netcdf",
			file:      "download.nc",
			content:   padded("<!DOCTYPE html><html>"),
			wantValid: false,
			wantIssue: "File is HTML (likely download error page)",
		},
		{
			name:      "hdf5 content under grib extension",
			file:      "mislabeled.grb",
			content:   padded("\x89HDF\r\n\x1a\n"),
			wantValid: false,
			wantIssue: "Type mismatch: expected grib, detected hdf5",
		},
		{
			name:      "garbage under netcdf extension",
			file:      "garbage.nc",
			content:   padded("random bytes here"),
			wantValid: false,
			wantIssue: "Cannot detect valid netcdf signature",
		},
		{
			name:      "too small",
			file:      "tiny.nc",
			content:   []byte("CDF\x01"),
			wantValid: false,
			wantIssue: "File too small (4 bytes)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			result := v.CheckSignature(path)

			assert.Equal(t, tt.wantValid, result.IsValid)
			if tt.wantIssue != "" {
				assert.Contains(t, result.Issues, tt.wantIssue)
			}
		})
	}
}

func TestCheckSignatureMissingFile(t *testing.T) {
	v := newValidator()
	result := v.CheckSignature("/nonexistent/file.nc")

	assert.False(t, result.Exists)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Issues, "File does not exist")
}

func TestQuickValidate(t *testing.T) {
	dir := t.TempDir()
	v := newValidator()

	good := writeFile(t, dir, "good.nc", padded("CDF\x01"))
	ok, msg := v.QuickValidate(good)
	assert.True(t, ok)
	assert.Contains(t, msg, "netcdf")

	bad := writeFile(t, dir, "bad.nc", padded("<html>"))
	ok, msg = v.QuickValidate(bad)
	assert.False(t, ok)
	assert.Contains(t, msg, "Invalid")
}

func TestValidateDirectory(t *testing.T) {
	dir := t.TempDir()
	v := newValidator()

	writeFile(t, dir, "good1.nc", padded("CDF\x01"))
	writeFile(t, dir, "good2.h5", padded("\x89HDF\r\n\x1a\n"))
	writeFile(t, dir, "bad.nc", padded("<!DOCTYPE html>"))
	writeFile(t, dir, "notes.txt", bytes.Repeat([]byte("x"), 200)) // not a data file

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, sub, "deep.grb", padded("GRIB"))

	report, err := v.ValidateDirectory(dir)
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalFiles)
	assert.Len(t, report.Valid, 3)
	assert.Len(t, report.Invalid, 1)
	assert.Equal(t, 1, report.IssuesSummary["File is HTML (likely download error page)"])
}

func TestSuggestFixes(t *testing.T) {
	result := Result{Issues: []string{"File is HTML (likely download error page)"}}
	fixes := SuggestFixes(result)
	require.NotEmpty(t, fixes)
	assert.Contains(t, fixes[0], "Re-download")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512.00 B", FormatSize(512))
	assert.Equal(t, "1.00 KB", FormatSize(1024))
	assert.Equal(t, "1.50 MB", FormatSize(1536*1024))
}
