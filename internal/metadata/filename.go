package metadata

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"fairsearch/pkg/types"
)

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`),
		regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`),
		regexp.MustCompile(`(\d{4})_(\d{2})_(\d{2})`),
	}
	versionPattern = regexp.MustCompile(`(?i)v(?:ersion)?[_\-]?(\d+(?:\.\d+)?)`)
)

// variableHints maps common filename abbreviations to the variable they
// usually denote. Matches are hints only; they feed the searchable text.
var variableHints = []struct {
	abbr string
	full string
}{
	{"sst", "sea_surface_temperature"},
	{"ssh", "sea_surface_height"},
	{"sss", "sea_surface_salinity"},
	{"temp", "temperature"},
	{"sal", "salinity"},
	{"wind", "wind_speed"},
	{"precip", "precipitation"},
	{"press", "pressure"},
}

// applyFilenameMetadata fills date, version and variable hints derived
// from the file name. Existing record fields are never overwritten.
func applyFilenameMetadata(rec *types.Record, path string) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if rec.DateFromFilename == "" {
		for _, p := range datePatterns {
			if m := p.FindStringSubmatch(stem); m != nil {
				rec.DateFromFilename = fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
				break
			}
		}
	}

	if rec.Version == "" {
		if m := versionPattern.FindStringSubmatch(stem); m != nil {
			rec.Version = m[1]
		}
	}

	if len(rec.VariableHints) == 0 {
		lower := strings.ToLower(stem)
		for _, hint := range variableHints {
			if strings.Contains(lower, hint.abbr) {
				rec.VariableHints = append(rec.VariableHints, hint.full)
			}
		}
	}
}
