// Package config provides the explicit configuration passed to each
// component at construction time: scientific data extensions, companion
// document patterns, size thresholds, the magic byte table, and settings
// for the embedding and judgment collaborators.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

// EmbedderConfig selects and configures the text embedding provider.
type EmbedderConfig struct {
	Provider    string `toml:"provider"` // ollama, openai, local
	Model       string `toml:"model"`
	BaseURL     string `toml:"base_url"`
	APIKeyEnv   string `toml:"api_key_env"`
	CacheSize   int    `toml:"cache_size"`
	CachePath   string `toml:"cache_path"` // SQLite cache file; empty = memory only
	TimeoutSecs int    `toml:"timeout_secs"`
}

// JudgeConfig configures the external relevance judgment collaborator.
type JudgeConfig struct {
	Enabled     bool   `toml:"enabled"`
	Model       string `toml:"model"`
	BaseURL     string `toml:"base_url"`
	TimeoutSecs int    `toml:"timeout_secs"`
}

// Config holds all settings for the search engine and its components.
type Config struct {
	// IndexDir holds the three persisted index artifacts.
	IndexDir string `toml:"index_dir"`
	// TempDir holds archive extraction directories.
	TempDir string `toml:"temp_dir"`

	DataExtensions         []string `toml:"data_extensions"`
	ArchiveExtensions      []string `toml:"archive_extensions"`
	CompanionDocExtensions []string `toml:"companion_doc_extensions"`
	ScriptExtensions       []string `toml:"script_extensions"`

	ReadmePatterns        []string `toml:"readme_patterns"`
	CitationPatterns      []string `toml:"citation_patterns"`
	DocumentationPatterns []string `toml:"documentation_patterns"`

	// MinFileSize is the smallest file accepted by validation, in bytes.
	MinFileSize int64 `toml:"min_file_size"`
	// MaxHeaderBytes is how much of a file is read for signature checks.
	MaxHeaderBytes int `toml:"max_header_bytes"`

	DefaultTopK int `toml:"default_top_k"`
	Workers     int `toml:"workers"`

	Embedder EmbedderConfig `toml:"embedder"`
	Judge    JudgeConfig    `toml:"judge"`

	// MagicBytes maps a detected type name to its signature prefixes.
	// Not read from the config file; fixed table from Default().
	MagicBytes map[string][][]byte `toml:"-"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".fairsearch")

	return &Config{
		IndexDir: filepath.Join(base, "index"),
		TempDir:  filepath.Join(base, "tmp"),

		DataExtensions:         []string{".nc", ".nc4", ".hdf", ".hdf5", ".h5", ".grb", ".grb2", ".grib", ".grib2"},
		ArchiveExtensions:      []string{".zip", ".tar", ".tar.gz", ".tgz", ".tar.bz2"},
		CompanionDocExtensions: []string{".txt", ".md", ".pdf", ".rst", ".doc", ".docx"},
		ScriptExtensions:       []string{".py", ".r", ".m", ".ipynb", ".sh", ".bash"},

		ReadmePatterns:        []string{"readme*", "README*", "ReadMe*"},
		CitationPatterns:      []string{"citation*", "CITATION*", "references*", "doi*", "paper*"},
		DocumentationPatterns: []string{"*documentation*", "*manual*", "*guide*", "data_dictionary*"},

		MinFileSize:    100,
		MaxHeaderBytes: 1024,

		DefaultTopK: 10,
		Workers:     runtime.NumCPU(),

		Embedder: EmbedderConfig{
			Provider:    "local",
			CacheSize:   10000,
			TimeoutSecs: 30,
		},
		Judge: JudgeConfig{
			Enabled:     false,
			Model:       "llama3.2:3b",
			BaseURL:     "http://localhost:11434",
			TimeoutSecs: 30,
		},

		MagicBytes: defaultMagicBytes(),
	}
}

// defaultMagicBytes is the fixed signature table. NetCDF-4 files are
// HDF5 containers, so the HDF5 signature appears under both types.
func defaultMagicBytes() map[string][][]byte {
	return map[string][][]byte{
		"netcdf": {[]byte("CDF\x01"), []byte("CDF\x02"), []byte("\x89HDF\r\n\x1a\n")},
		"hdf5":   {[]byte("\x89HDF\r\n\x1a\n")},
		"grib":   {[]byte("GRIB")},
		"html":   {[]byte("<!DOCTYPE"), []byte("<html"), []byte("<HTML")},
		"xml":    {[]byte("<?xml")},
		"pdf":    {[]byte("%PDF")},
		"zip":    {[]byte("PK\x03\x04"), []byte("PK\x05\x06")},
		"gzip":   {[]byte("\x1f\x8b")},
	}
}

// Load reads a TOML config file on top of the defaults. Fields absent
// from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads ~/.fairsearch/config.toml when present, otherwise
// returns the defaults.
func LoadDefault() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Default(), nil
	}
	path := filepath.Join(home, ".fairsearch", "config.toml")
	if _, err := os.Stat(path); err != nil {
		return Default(), nil
	}
	return Load(path)
}
