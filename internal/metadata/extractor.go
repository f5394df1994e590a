// Package metadata defines the metadata extraction boundary and turns
// extracted records into normalized searchable text.
//
// Format-specific parsing (NetCDF/HDF5/GRIB internals) lives behind the
// Extractor interface; the core depends only on the interface and on the
// record it returns. The package also provides filename-based heuristics
// that apply regardless of format.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fairsearch/pkg/types"
)

// Extractor produces a metadata record for one data file. Implementations
// return an error for corrupt or unsupported files; the engine records it
// and skips the file without aborting the batch.
type Extractor interface {
	// Extract reads metadata from the file at path.
	Extract(path string) (*types.Record, error)
	// Formats lists the extensions this extractor handles, lowercase
	// with leading dot.
	Formats() []string
}

// Registry routes extraction to the extractor registered for a file's
// extension. Registration order is irrelevant; extensions are unique.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry creates a registry with the given extractors. A later
// registration for an already-claimed extension wins.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	for _, ex := range extractors {
		r.Register(ex)
	}
	return r
}

// Register adds an extractor for all its declared extensions.
func (r *Registry) Register(ex Extractor) {
	for _, ext := range ex.Formats() {
		r.byExt[strings.ToLower(ext)] = ex
	}
}

// Extract dispatches on the file extension and merges filename-derived
// hints into the returned record.
func (r *Registry) Extract(path string) (*types.Record, error) {
	ext := strings.ToLower(filepath.Ext(path))
	ex, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported file extension %q", types.ErrExtraction, ext)
	}

	rec, err := ex.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrExtraction, err)
	}

	applyFilenameMetadata(rec, path)
	return rec, nil
}

// Supports reports whether any registered extractor claims the extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// HeuristicExtractor is the default extractor used when no format-aware
// parser is wired in. It fills the fields available without opening the
// file body: path, format from extension, and size. Deployments with
// real NetCDF/HDF5/GRIB bindings register richer extractors instead.
type HeuristicExtractor struct {
	format     types.Format
	extensions []string
}

// NewHeuristicExtractor creates an extractor for one format family.
func NewHeuristicExtractor(format types.Format, extensions ...string) *HeuristicExtractor {
	return &HeuristicExtractor{format: format, extensions: extensions}
}

// DefaultRegistry returns a registry with heuristic extractors for all
// supported scientific data formats.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewHeuristicExtractor(types.FormatNetCDF, ".nc", ".nc4"),
		NewHeuristicExtractor(types.FormatHDF5, ".hdf", ".hdf5", ".h5"),
		NewHeuristicExtractor(types.FormatGRIB, ".grb", ".grb2", ".grib", ".grib2"),
	)
}

func (h *HeuristicExtractor) Extract(path string) (*types.Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &types.Record{
		Filepath: abs,
		Filename: filepath.Base(path),
		Format:   h.format,
		FileSize: info.Size(),
	}, nil
}

func (h *HeuristicExtractor) Formats() []string {
	return h.extensions
}
