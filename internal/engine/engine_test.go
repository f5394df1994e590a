package engine

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairsearch/internal/config"
	"fairsearch/internal/embedder"
	"fairsearch/internal/relevance"
	"fairsearch/internal/vectorindex"
	"fairsearch/pkg/types"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.IndexDir = filepath.Join(t.TempDir(), "index")
	cfg.TempDir = t.TempDir()
	cfg.Workers = 2
	return cfg
}

func testEngine(t *testing.T, judge relevance.Judge) *Engine {
	t.Helper()
	emb, err := embedder.New(config.EmbedderConfig{Provider: "local", CacheSize: 64})
	require.NoError(t, err)
	e := New(testConfig(t), emb, judge)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// writeDataFile writes a file with a valid signature padded past the
// minimum size check.
func writeDataFile(t *testing.T, dir, name string, magic []byte) string {
	t.Helper()
	data := make([]byte, 256)
	copy(data, magic)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

var netcdfMagic = []byte("CDF\x01")

func TestIndexFileAndSearch(t *testing.T) {
	e := testEngine(t, nil)
	dir := t.TempDir()
	path := writeDataFile(t, dir, "ocean_temp_2023.nc", netcdfMagic)

	rec, err := e.IndexFile(context.Background(), path, DefaultIndexOptions())
	require.NoError(t, err)
	assert.Equal(t, "ocean_temp_2023.nc", rec.Filename)
	assert.Equal(t, types.FormatNetCDF, rec.Format)

	results, err := e.Search(context.Background(), "ocean temperature", 5, vectorindex.NoThreshold)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, rec.Filepath, results[0].Record.Filepath)
}

func TestIndexFileValidationFailureLeavesIndexUntouched(t *testing.T) {
	e := testEngine(t, nil)
	dir := t.TempDir()

	// too small and wrong signature
	tiny := filepath.Join(dir, "tiny.nc")
	require.NoError(t, os.WriteFile(tiny, []byte("xx"), 0o644))

	_, err := e.IndexFile(context.Background(), tiny, DefaultIndexOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, 0, e.Index().Stats().Count, "failed files must not leave partial index state")
}

func TestIndexDirectoryPartialFailure(t *testing.T) {
	e := testEngine(t, nil)
	dir := t.TempDir()

	writeDataFile(t, dir, "a.nc", netcdfMagic)
	writeDataFile(t, dir, "b.h5", []byte("\x89HDF\r\n\x1a\n"))
	bad := filepath.Join(dir, "broken.nc")
	require.NoError(t, os.WriteFile(bad, []byte("no"), 0o644))

	report, err := e.IndexPath(context.Background(), dir, DefaultIndexOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, bad, report.Errors[0].Filepath)
	assert.True(t, report.HasErrors())
	assert.Equal(t, 2, e.Index().Stats().Count)
}

func TestIndexFileAttachesRelevantCompanion(t *testing.T) {
	e := testEngine(t, nil)
	dir := t.TempDir()

	path := writeDataFile(t, dir, "ocean_temp_2023.nc", netcdfMagic)
	readme := "ocean_temp_2023.nc holds SST.\n" +
		"Processing of ocean_temp_2023.nc used xarray.\n" +
		"Cite ocean_temp_2023.nc when publishing.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte(readme), 0o644))

	rec, err := e.IndexFile(context.Background(), path, DefaultIndexOptions())
	require.NoError(t, err)

	require.Len(t, rec.CompanionDocs, 1)
	assert.Equal(t, types.DocReadme, rec.CompanionDocs[0].DocType)
	assert.InDelta(t, 0.95, rec.CompanionDocs[0].Confidence, 1e-9)
}

func TestIndexFileExcludesUncertainCompanion(t *testing.T) {
	// no judge configured, so a readme with no mentions stays uncertain
	e := testEngine(t, nil)
	dir := t.TempDir()

	path := writeDataFile(t, dir, "ocean_temp_2023.nc", netcdfMagic)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"),
		[]byte("General notes that never name any file."), 0o644))

	rec, err := e.IndexFile(context.Background(), path, DefaultIndexOptions())
	require.NoError(t, err)
	assert.Empty(t, rec.CompanionDocs)
}

func TestFindSimilar(t *testing.T) {
	e := testEngine(t, nil)
	dir := t.TempDir()

	a := writeDataFile(t, dir, "a.nc", netcdfMagic)
	b := writeDataFile(t, dir, "b.nc", netcdfMagic)
	opts := DefaultIndexOptions()

	recA, err := e.IndexFile(context.Background(), a, opts)
	require.NoError(t, err)
	recB, err := e.IndexFile(context.Background(), b, opts)
	require.NoError(t, err)

	results, err := e.FindSimilar(a, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, recB.Filepath, results[0].Record.Filepath)
	assert.NotEqual(t, recA.Filepath, results[0].Record.Filepath)
}

func TestFindSimilarUnindexedFile(t *testing.T) {
	e := testEngine(t, nil)
	_, err := e.FindSimilar("/nowhere/missing.nc", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNoIndex)
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	cfg := testConfig(t)
	emb, err := embedder.New(config.EmbedderConfig{Provider: "local", CacheSize: 64})
	require.NoError(t, err)

	e := New(cfg, emb, nil)
	dir := t.TempDir()
	path := writeDataFile(t, dir, "ocean_temp_2023.nc", netcdfMagic)

	rec, err := e.IndexFile(context.Background(), path, DefaultIndexOptions())
	require.NoError(t, err)
	require.NoError(t, e.Save())

	reloaded, err := Load(cfg, emb, nil)
	require.NoError(t, err)
	defer func() { _ = reloaded.Close() }()

	assert.Equal(t, 1, reloaded.Index().Stats().Count)
	results, err := reloaded.Search(context.Background(), "sea surface temperature", 1, vectorindex.NoThreshold)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, rec.Filepath, results[0].Record.Filepath)
}

func TestLoadMissingIndexStartsFresh(t *testing.T) {
	cfg := testConfig(t)
	emb, err := embedder.New(config.EmbedderConfig{Provider: "local", CacheSize: 64})
	require.NoError(t, err)

	e, err := Load(cfg, emb, nil)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()
	assert.Equal(t, 0, e.Index().Stats().Count)
}

func TestSearchEmptyIndexReturnsNoIndexError(t *testing.T) {
	cfg := testConfig(t)
	emb, err := embedder.New(config.EmbedderConfig{Provider: "local", CacheSize: 64})
	require.NoError(t, err)

	e, err := Load(cfg, emb, nil)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	_, err = e.Search(context.Background(), "ocean temperature", 5, vectorindex.NoThreshold)
	require.Error(t, err, "searching before indexing must not look like an empty result set")
	assert.ErrorIs(t, err, types.ErrNoIndex)
}

func TestCompactRemovesDuplicates(t *testing.T) {
	e := testEngine(t, nil)
	dir := t.TempDir()
	path := writeDataFile(t, dir, "a.nc", netcdfMagic)
	opts := DefaultIndexOptions()

	for i := 0; i < 3; i++ {
		_, err := e.IndexFile(context.Background(), path, opts)
		require.NoError(t, err)
	}
	require.Equal(t, 3, e.Index().Stats().Count)

	removed, err := e.Compact()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, e.Index().Stats().Count)
}

func TestStats(t *testing.T) {
	e := testEngine(t, nil)
	s := e.Stats()
	assert.Equal(t, embedder.ProviderLocal, s.Provider)
	assert.Equal(t, 0, s.Index.Count)
	assert.Equal(t, embedder.LocalDimension, s.Index.Dimension)
}

func TestDiscoverFilesSkipsHiddenDirs(t *testing.T) {
	e := testEngine(t, nil)
	dir := t.TempDir()

	writeDataFile(t, dir, "visible.nc", netcdfMagic)
	hidden := filepath.Join(dir, ".cache")
	require.NoError(t, os.MkdirAll(hidden, 0o755))
	writeDataFile(t, hidden, "skipped.nc", netcdfMagic)

	dataFiles, archives, err := e.discoverFiles(dir)
	require.NoError(t, err)
	assert.Empty(t, archives)
	require.Len(t, dataFiles, 1)
	assert.True(t, strings.HasSuffix(dataFiles[0], "visible.nc"))
}

func TestIndexDirectoryWithArchive(t *testing.T) {
	e := testEngine(t, nil)
	dir := t.TempDir()

	payload := make([]byte, 256)
	copy(payload, netcdfMagic)
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("inner/ocean.nc")
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bundle.zip"), buf.Bytes(), 0o644))

	report, err := e.IndexPath(context.Background(), dir, DefaultIndexOptions())
	require.NoError(t, err)
	require.Equal(t, 1, report.Indexed)

	recs := e.List()
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].ArchiveContext)
	assert.Equal(t, "bundle.zip", recs[0].ArchiveContext.FromArchive)
	assert.Equal(t, filepath.Join("inner", "ocean.nc"), recs[0].ArchiveContext.RelativePath)
}

func TestIndexDirectorySkipsArchivesWhenDisabled(t *testing.T) {
	e := testEngine(t, nil)
	dir := t.TempDir()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("ocean.nc")
	require.NoError(t, err)
	_, err = w.Write([]byte("CDF\x01"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bundle.zip"), buf.Bytes(), 0o644))

	opts := DefaultIndexOptions()
	opts.ExtractArchives = false
	report, err := e.IndexPath(context.Background(), dir, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Indexed)
	assert.Equal(t, 0, report.Failed)
}

func TestSearchDefaultTopK(t *testing.T) {
	e := testEngine(t, nil)
	dir := t.TempDir()
	for _, name := range []string{"a.nc", "b.nc", "c.nc"} {
		path := writeDataFile(t, dir, name, netcdfMagic)
		_, err := e.IndexFile(context.Background(), path, DefaultIndexOptions())
		require.NoError(t, err)
	}

	results, err := e.Search(context.Background(), "anything", 0, vectorindex.NoThreshold)
	require.NoError(t, err)
	assert.Len(t, results, 3, "topK <= 0 falls back to the configured default")
}
