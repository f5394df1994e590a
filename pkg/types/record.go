package types

// Format identifies the scientific data format of an indexed file.
type Format string

const (
	FormatNetCDF Format = "NetCDF"
	FormatHDF5   Format = "HDF5"
	FormatGRIB   Format = "GRIB"
)

// Variable describes one variable inside a data file. The payload is
// opaque to the core: it is merged into searchable text and otherwise
// passed through untouched.
type Variable struct {
	Dimensions []string          `json:"dimensions,omitempty"`
	Shape      []int             `json:"shape,omitempty"`
	DType      string            `json:"dtype,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// ArchiveContext records where a file came from when it was indexed out
// of an extracted archive.
type ArchiveContext struct {
	FromArchive  string `json:"from_archive"`
	ArchivePath  string `json:"archive_path"`
	RelativePath string `json:"relative_path,omitempty"`
}

// Record is the metadata for one indexed scientific data file. It is
// constructed once by merging extractor output with filename heuristics
// and companion text, then treated as an immutable value.
type Record struct {
	Filepath string `json:"filepath"`
	Filename string `json:"filename,omitempty"`
	Format   Format `json:"format,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`

	Title       string `json:"title,omitempty"`
	Institution string `json:"institution,omitempty"`
	Source      string `json:"source,omitempty"`
	History     string `json:"history,omitempty"`
	References  string `json:"references,omitempty"`
	Comment     string `json:"comment,omitempty"`
	Conventions string `json:"conventions,omitempty"`

	Variables        map[string]Variable `json:"variables,omitempty"`
	Dimensions       map[string]int      `json:"dimensions,omitempty"`
	GlobalAttributes map[string]string   `json:"global_attributes,omitempty"`

	// Filename-derived hints.
	DateFromFilename string   `json:"date_from_filename,omitempty"`
	Version          string   `json:"version,omitempty"`
	VariableHints    []string `json:"variables_hint,omitempty"`

	CompanionDocs  []CompanionRecord `json:"companion_docs,omitempty"`
	ArchiveContext *ArchiveContext   `json:"archive_context,omitempty"`
}

// DocType classifies a companion document.
type DocType string

const (
	DocReadme        DocType = "readme"
	DocCitation      DocType = "citation"
	DocScript        DocType = "script"
	DocDocumentation DocType = "documentation"
)

// CompanionRecord is a document judged relevant to a data file. Created
// transiently during discovery; never independently persisted.
type CompanionRecord struct {
	Path       string  `json:"path"`
	DocType    DocType `json:"doc_type"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`

	// Optional extracted fields, format dependent.
	DOI         string            `json:"doi,omitempty"`
	Authors     []string          `json:"authors,omitempty"`
	Title       string            `json:"title,omitempty"`
	Year        string            `json:"year,omitempty"`
	URL         string            `json:"url,omitempty"`
	Institution string            `json:"institution,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}
