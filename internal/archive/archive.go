// Package archive extracts zip and tar archives into temporary
// directories so the data files inside can be indexed.
//
// Entry names are validated before any byte is written: an absolute
// path or a ".." segment aborts extraction of the whole archive, since
// a crafted archive should never be able to write outside its
// extraction directory.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"fairsearch/pkg/types"
)

// maxEntrySize caps one extracted entry to guard against decompression
// bombs.
const maxEntrySize = 4 << 30

// Handler extracts archives and tracks the temp directories it created.
type Handler struct {
	tempDir        string
	dataExtensions []string
	extracted      []string
}

// NewHandler creates a Handler that extracts under tempDir and
// recognizes the given data file extensions.
func NewHandler(tempDir string, dataExtensions []string) *Handler {
	return &Handler{
		tempDir:        tempDir,
		dataExtensions: dataExtensions,
	}
}

// IsArchive reports whether the path has a supported archive extension.
func IsArchive(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range []string{".zip", ".tar", ".tar.gz", ".tgz", ".tar.bz2"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// Extract unpacks the archive into a fresh directory and returns its
// path. Any unsafe entry aborts the whole extraction and removes the
// partial output.
func (h *Handler) Extract(archivePath string) (string, error) {
	dest := filepath.Join(h.tempDir, "extract-"+uuid.NewString())
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create extraction directory: %w", err)
	}

	var err error
	lower := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		err = extractZip(archivePath, dest)
	case strings.HasSuffix(lower, ".tar"):
		err = extractTarFile(archivePath, dest, "")
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		err = extractTarFile(archivePath, dest, "gzip")
	case strings.HasSuffix(lower, ".tar.bz2"):
		err = extractTarFile(archivePath, dest, "bzip2")
	default:
		err = fmt.Errorf("unsupported archive format: %s", filepath.Ext(archivePath))
	}

	if err != nil {
		_ = os.RemoveAll(dest)
		return "", fmt.Errorf("extract %s: %w", filepath.Base(archivePath), err)
	}

	h.extracted = append(h.extracted, dest)
	return dest, nil
}

// ExtractedFile is one data file found inside an extracted archive.
type ExtractedFile struct {
	// Path is the absolute location of the extracted file on disk.
	Path string
	// Context records the archive the file came from.
	Context types.ArchiveContext
}

// FindDataFiles walks an extracted directory and returns data files
// with their archive context attached.
func (h *Handler) FindDataFiles(extractedDir, archivePath string) ([]ExtractedFile, error) {
	var found []ExtractedFile
	err := filepath.WalkDir(extractedDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !h.isDataFile(path) {
			return nil
		}
		rel, err := filepath.Rel(extractedDir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		found = append(found, ExtractedFile{
			Path: path,
			Context: types.ArchiveContext{
				FromArchive:  filepath.Base(archivePath),
				ArchivePath:  archivePath,
				RelativePath: rel,
			},
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk extracted archive: %w", err)
	}
	return found, nil
}

// Structure lists an archive's entries without extracting, sorted,
// directories suffixed with a slash.
func Structure(archivePath string) ([]string, error) {
	lower := strings.ToLower(archivePath)
	var entries []string
	var err error
	switch {
	case strings.HasSuffix(lower, ".zip"):
		entries, err = zipEntries(archivePath)
	case strings.HasSuffix(lower, ".tar"):
		entries, err = tarEntries(archivePath, "")
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		entries, err = tarEntries(archivePath, "gzip")
	case strings.HasSuffix(lower, ".tar.bz2"):
		entries, err = tarEntries(archivePath, "bzip2")
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", filepath.Ext(archivePath))
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	return entries, nil
}

// Cleanup removes every directory this handler extracted.
func (h *Handler) Cleanup() {
	for _, dir := range h.extracted {
		_ = os.RemoveAll(dir)
	}
	h.extracted = nil
}

func (h *Handler) isDataFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range h.dataExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// safeJoin validates an archive entry name and resolves it under dest.
func safeJoin(dest, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("unsafe absolute entry path %q", name)
	}
	clean := filepath.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("unsafe entry path %q escapes archive root", name)
	}
	return filepath.Join(dest, clean), nil
}

func extractZip(archivePath, dest string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Close()
	}()

	// validate every entry before writing anything
	for _, f := range r.File {
		if _, err := safeJoin(dest, f.Name); err != nil {
			return err
		}
	}

	for _, f := range r.File {
		target, _ := safeJoin(dest, f.Name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeEntry(target, rc)
		_ = rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTarFile(archivePath, dest, compression string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	var reader io.Reader = f
	switch compression {
	case "gzip":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer func() {
			_ = gz.Close()
		}()
		reader = gz
	case "bzip2":
		reader = bzip2.NewReader(f)
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := writeEntry(target, tr); err != nil {
				return err
			}
		}
		// symlinks and other entry types are skipped
	}
}

func writeEntry(target string, r io.Reader) error {
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, io.LimitReader(r, maxEntrySize))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}

func zipEntries(archivePath string) ([]string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close()
	}()

	entries := make([]string, 0, len(r.File))
	for _, f := range r.File {
		name := f.Name
		if f.FileInfo().IsDir() && !strings.HasSuffix(name, "/") {
			name += "/"
		}
		entries = append(entries, name)
	}
	return entries, nil
}

func tarEntries(archivePath, compression string) ([]string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	var reader io.Reader = f
	switch compression {
	case "gzip":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = gz.Close()
		}()
		reader = gz
	case "bzip2":
		reader = bzip2.NewReader(f)
	}

	var entries []string
	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		name := hdr.Name
		if hdr.Typeflag == tar.TypeDir && !strings.HasSuffix(name, "/") {
			name += "/"
		}
		entries = append(entries, name)
	}
}
