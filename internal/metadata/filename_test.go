package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fairsearch/pkg/types"
)

func TestApplyFilenameMetadata(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantDate  string
		wantVer   string
		wantHints []string
	}{
		{
			name:     "compact date",
			path:     "/data/sst_20230115.nc",
			wantDate: "2023-01-15",
			wantHints: []string{
				"sea_surface_temperature",
			},
		},
		{
			name:     "dashed date",
			path:     "/data/obs_2023-01-15.nc",
			wantDate: "2023-01-15",
		},
		{
			name:     "underscore date",
			path:     "/data/obs_2023_01_15.nc",
			wantDate: "2023-01-15",
		},
		{
			name:    "version suffix",
			path:    "/data/model_v2.nc",
			wantVer: "2",
		},
		{
			name:    "dotted version",
			path:    "/data/model_v1.5.nc",
			wantVer: "1.5",
		},
		{
			name:      "salinity hint",
			path:      "/data/ocean_sal_monthly.nc",
			wantHints: []string{"salinity"},
		},
		{
			name: "nothing derivable",
			path: "/data/plainfile.nc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &types.Record{}
			applyFilenameMetadata(rec, tt.path)

			assert.Equal(t, tt.wantDate, rec.DateFromFilename)
			assert.Equal(t, tt.wantVer, rec.Version)
			for _, hint := range tt.wantHints {
				assert.Contains(t, rec.VariableHints, hint)
			}
		})
	}
}

func TestApplyFilenameMetadataDoesNotOverwrite(t *testing.T) {
	rec := &types.Record{
		DateFromFilename: "1999-12-31",
		Version:          "9",
	}
	applyFilenameMetadata(rec, "/data/sst_20230115_v2.nc")

	assert.Equal(t, "1999-12-31", rec.DateFromFilename)
	assert.Equal(t, "9", rec.Version)
}
