package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dataExts = []string{".nc", ".h5", ".grb"}

func writeZip(t *testing.T, dir string, entries map[string][]byte) string {
	t.Helper()
	path := filepath.Join(dir, "test.zip")
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func writeTar(t *testing.T, dir string, entries map[string][]byte) string {
	t.Helper()
	path := filepath.Join(dir, "test.tar")
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestIsArchive(t *testing.T) {
	assert.True(t, IsArchive("data.zip"))
	assert.True(t, IsArchive("data.tar"))
	assert.True(t, IsArchive("data.tar.gz"))
	assert.True(t, IsArchive("DATA.TGZ"))
	assert.False(t, IsArchive("data.nc"))
	assert.False(t, IsArchive("data.gz"))
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir, dataExts)
	defer h.Cleanup()

	archivePath := writeZip(t, dir, map[string][]byte{
		"ocean.nc":        []byte("CDF\x01data"),
		"nested/deep.h5":  []byte("hdf5data"),
		"README.txt":      []byte("about this archive"),
		"subdir/empty.md": []byte(""),
	})

	dest, err := h.Extract(archivePath)
	require.NoError(t, err)

	for _, name := range []string{"ocean.nc", "nested/deep.h5", "README.txt"} {
		_, err := os.Stat(filepath.Join(dest, name))
		assert.NoError(t, err, name)
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir, dataExts)
	defer h.Cleanup()

	archivePath := writeZip(t, dir, map[string][]byte{
		"good.nc":    []byte("CDF\x01data"),
		"../evil.nc": []byte("CDF\x01payload"),
	})

	_, err := h.Extract(archivePath)
	require.Error(t, err, "one unsafe entry aborts the whole archive")

	_, statErr := os.Stat(filepath.Join(dir, "evil.nc"))
	assert.True(t, os.IsNotExist(statErr), "nothing may be written outside the extraction root")

	// the partial extraction directory is removed as well
	matches, globErr := filepath.Glob(filepath.Join(dir, "extract-*"))
	require.NoError(t, globErr)
	assert.Empty(t, matches)
}

func TestExtractTarRejectsAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir, dataExts)
	defer h.Cleanup()

	archivePath := writeTar(t, dir, map[string][]byte{
		"/etc/evil.nc": []byte("CDF\x01payload"),
	})

	_, err := h.Extract(archivePath)
	assert.Error(t, err)
}

func TestFindDataFiles(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir, dataExts)
	defer h.Cleanup()

	archivePath := writeZip(t, dir, map[string][]byte{
		"ocean.nc":       []byte("CDF\x01data"),
		"nested/deep.h5": []byte("hdf5data"),
		"README.txt":     []byte("docs"),
	})

	dest, err := h.Extract(archivePath)
	require.NoError(t, err)

	files, err := h.FindDataFiles(dest, archivePath)
	require.NoError(t, err)
	require.Len(t, files, 2)

	rels := make(map[string]bool)
	for _, f := range files {
		assert.Equal(t, "test.zip", f.Context.FromArchive)
		assert.Equal(t, archivePath, f.Context.ArchivePath)
		rels[filepath.ToSlash(f.Context.RelativePath)] = true

		_, err := os.Stat(f.Path)
		assert.NoError(t, err)
	}
	assert.True(t, rels["ocean.nc"])
	assert.True(t, rels["nested/deep.h5"])
}

func TestStructure(t *testing.T) {
	dir := t.TempDir()

	archivePath := writeZip(t, dir, map[string][]byte{
		"b.nc":       []byte("x"),
		"a/inner.h5": []byte("y"),
	})

	entries, err := Structure(archivePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/inner.h5", "b.nc"}, entries)
}

func TestExtractTar(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir, dataExts)
	defer h.Cleanup()

	archivePath := writeTar(t, dir, map[string][]byte{
		"forecast.grb": []byte("GRIBdata"),
	})

	dest, err := h.Extract(archivePath)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dest, "forecast.grb"))
	require.NoError(t, err)
	assert.Equal(t, []byte("GRIBdata"), content)
}

func TestCleanupRemovesExtractedDirs(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir, dataExts)

	archivePath := writeZip(t, dir, map[string][]byte{"a.nc": []byte("x")})
	dest, err := h.Extract(archivePath)
	require.NoError(t, err)

	h.Cleanup()
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}
