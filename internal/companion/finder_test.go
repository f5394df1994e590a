package companion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairsearch/internal/config"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("content\n"), 0o644))
	return path
}

func newTestFinder() *Finder {
	return NewFinder(config.Default())
}

func TestFindCompanions(t *testing.T) {
	dir := t.TempDir()
	f := newTestFinder()

	data := touch(t, dir, "ocean_temp_2023.nc")
	readme := touch(t, dir, "README.md")
	citation := touch(t, dir, "CITATION.cff")
	script := touch(t, dir, "process_data.py")
	touch(t, dir, "setup.py") // system file, excluded

	found := f.FindCompanions(data, DefaultFindOptions())

	assert.Equal(t, []string{readme}, found.Readmes)
	assert.Equal(t, []string{citation}, found.Citations)
	assert.Equal(t, []string{script}, found.Scripts)
}

func TestFindCompanionsMissingDirectory(t *testing.T) {
	f := newTestFinder()
	found := f.FindCompanions("/nonexistent/dir/file.nc", DefaultFindOptions())
	assert.Equal(t, 0, found.Total())
}

func TestFindCompanionsExcludesDataFileItself(t *testing.T) {
	dir := t.TempDir()
	f := newTestFinder()

	data := touch(t, dir, "sst_v1.nc")
	sibling := touch(t, dir, "sst_v2.nc")

	found := f.FindCompanions(data, DefaultFindOptions())

	assert.Contains(t, found.RelatedData, sibling)
	assert.NotContains(t, found.RelatedData, data)
}

func TestFindCompanionsParentGating(t *testing.T) {
	parent := t.TempDir()
	child := filepath.Join(parent, "data")
	require.NoError(t, os.Mkdir(child, 0o755))

	f := newTestFinder()
	data := touch(t, child, "obs.nc")
	parentReadme := touch(t, parent, "README.md")

	// parent searched when it is a plain directory
	found := f.FindCompanions(data, FindOptions{SearchParent: true})
	assert.Contains(t, found.Readmes, parentReadme)

	// a project marker shuts parent search off
	touch(t, parent, "setup.py")
	found = f.FindCompanions(data, FindOptions{SearchParent: true})
	assert.NotContains(t, found.Readmes, parentReadme)
}

func TestFindRelatedFilesStripsSuffixes(t *testing.T) {
	dir := t.TempDir()
	f := newTestFinder()

	data := touch(t, dir, "temp_20230101.nc")
	related := touch(t, dir, "temp_20230202.nc")
	unrelated := touch(t, dir, "salinity.nc")

	found := f.FindCompanions(data, DefaultFindOptions())

	assert.Contains(t, found.RelatedData, related)
	assert.NotContains(t, found.RelatedData, unrelated)
}

func TestIsSystemFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/project/setup.py", true},
		{"/project/conftest.py", true},
		{"/project/run_jupyterlab.sh", true},
		{"/project/01_exploration.ipynb", true},
		{"/project/analysis.ipynb", false},
		{"/project/lib/helper.py", true},
		{"/project/__pycache__/mod.py", true},
		{"/project/process_data.py", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSystemFile(tt.path))
		})
	}
}

func TestFindDirectoryCompanions(t *testing.T) {
	dir := t.TempDir()
	f := newTestFinder()

	readme := touch(t, dir, "readme.txt")
	script := touch(t, dir, "analyze.r")

	found := f.FindDirectoryCompanions(dir)
	assert.Equal(t, []string{readme}, found.Readmes)
	assert.Equal(t, []string{script}, found.Scripts)
}
