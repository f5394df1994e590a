// Package companion locates and parses companion documentation (READMEs,
// citation files, processing scripts) near scientific data files.
//
// Discovery is pattern-based and deliberately conservative: system files,
// numbered notebooks and source-control/build artifacts are excluded so a
// project checkout sitting next to a data directory does not pollute the
// index.
package companion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"fairsearch/internal/config"
)

// Companions groups discovered candidate paths by document kind. Each
// slice is duplicate-free, sorted, and never contains the data file
// itself.
type Companions struct {
	Readmes       []string `json:"readmes"`
	Citations     []string `json:"citations"`
	Documentation []string `json:"documentation"`
	Scripts       []string `json:"scripts"`
	RelatedData   []string `json:"related_data"`
}

// Total returns the number of discovered candidates across all kinds.
func (c *Companions) Total() int {
	return len(c.Readmes) + len(c.Citations) + len(c.Documentation) +
		len(c.Scripts) + len(c.RelatedData)
}

// Summary renders a one-line count per kind for logging.
func (c *Companions) Summary() string {
	var parts []string
	for _, kv := range []struct {
		name  string
		paths []string
	}{
		{"Readmes", c.Readmes},
		{"Citations", c.Citations},
		{"Documentation", c.Documentation},
		{"Scripts", c.Scripts},
		{"Related Data", c.RelatedData},
	} {
		if len(kv.paths) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d file(s)", kv.name, len(kv.paths)))
		}
	}
	if len(parts) == 0 {
		return "No companions found"
	}
	return strings.Join(parts, "; ")
}

// FindOptions controls the search scope of FindCompanions.
type FindOptions struct {
	// SearchParent extends the search to the parent directory unless it
	// looks like a project root (contains setup.py, .git, src, ...).
	SearchParent bool
	// SearchSiblings includes related data files sharing the same base
	// name after version/date suffix stripping.
	SearchSiblings bool
}

// DefaultFindOptions mirrors the behavior used by the indexing pipeline.
func DefaultFindOptions() FindOptions {
	return FindOptions{SearchParent: false, SearchSiblings: true}
}

// projectMarkers indicate a directory is a project root rather than a
// data directory; parent search stops at them.
var projectMarkers = []string{"setup.py", "setup.sh", "requirements.txt", ".git", "lib", "src"}

// systemScripts are never companions regardless of location.
var systemScripts = map[string]bool{
	"setup.sh":          true,
	"setup.py":          true,
	"install.sh":        true,
	"run.sh":            true,
	"run_jupyterlab.sh": true,
	"test.py":           true,
	"tests.py":          true,
	"__init__.py":       true,
	"conftest.py":       true,
}

// excludedDirs are path segments whose contents are never companions.
var excludedDirs = map[string]bool{
	"lib": true, "src": true, "tests": true, "docs": true,
	".git": true, "__pycache__": true,
}

var numberedNotebook = regexp.MustCompile(`^\d{2}_`)

// Finder locates candidate companion files near a data file.
type Finder struct {
	readmePatterns   []string
	citationPatterns []string
	docPatterns      []string
	scriptExtensions []string
	dataExtensions   []string
}

// NewFinder creates a Finder from the given configuration.
func NewFinder(cfg *config.Config) *Finder {
	return &Finder{
		readmePatterns:   cfg.ReadmePatterns,
		citationPatterns: cfg.CitationPatterns,
		docPatterns:      cfg.DocumentationPatterns,
		scriptExtensions: cfg.ScriptExtensions,
		dataExtensions:   cfg.DataExtensions,
	}
}

// FindCompanions discovers candidate companion files for one data file.
// Missing directories yield empty results, never an error; the only
// side effects are filesystem reads.
func (f *Finder) FindCompanions(dataFilepath string, opts FindOptions) *Companions {
	companions := &Companions{}

	dataAbs, err := filepath.Abs(dataFilepath)
	if err != nil {
		dataAbs = dataFilepath
	}
	dataDir := filepath.Dir(dataAbs)

	searchDirs := []string{dataDir}
	if opts.SearchParent {
		parent := filepath.Dir(dataDir)
		if parent != dataDir && !hasProjectMarkers(parent) {
			searchDirs = append(searchDirs, parent)
		}
	}

	for _, dir := range searchDirs {
		companions.Readmes = append(companions.Readmes, f.globPatterns(dir, f.readmePatterns)...)
		companions.Citations = append(companions.Citations, f.globPatterns(dir, f.citationPatterns)...)
		companions.Documentation = append(companions.Documentation, f.globPatterns(dir, f.docPatterns)...)

		for _, ext := range f.scriptExtensions {
			for _, match := range f.globPatterns(dir, []string{"*" + ext}) {
				if !IsSystemFile(match) {
					companions.Scripts = append(companions.Scripts, match)
				}
			}
		}
	}

	if opts.SearchSiblings {
		companions.RelatedData = f.findRelatedFiles(dataAbs)
	}

	companions.Readmes = dedupeExcluding(companions.Readmes, dataAbs)
	companions.Citations = dedupeExcluding(companions.Citations, dataAbs)
	companions.Documentation = dedupeExcluding(companions.Documentation, dataAbs)
	companions.Scripts = dedupeExcluding(companions.Scripts, dataAbs)
	companions.RelatedData = dedupeExcluding(companions.RelatedData, dataAbs)

	return companions
}

// FindDirectoryCompanions discovers companions in a directory without
// reference to a specific data file. Not recursive.
func (f *Finder) FindDirectoryCompanions(directory string) *Companions {
	companions := &Companions{
		Readmes:       dedupeExcluding(f.globPatterns(directory, f.readmePatterns), ""),
		Citations:     dedupeExcluding(f.globPatterns(directory, f.citationPatterns), ""),
		Documentation: dedupeExcluding(f.globPatterns(directory, f.docPatterns), ""),
	}
	for _, ext := range f.scriptExtensions {
		for _, match := range f.globPatterns(directory, []string{"*" + ext}) {
			if !IsSystemFile(match) {
				companions.Scripts = append(companions.Scripts, match)
			}
		}
	}
	companions.Scripts = dedupeExcluding(companions.Scripts, "")
	return companions
}

// globPatterns returns regular files in dir matching any pattern.
// Glob errors (malformed pattern, unreadable dir) yield no matches.
func (f *Finder) globPatterns(dir string, patterns []string) []string {
	var found []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		for _, match := range matches {
			if info, err := os.Stat(match); err == nil && !info.IsDir() {
				found = append(found, match)
			}
		}
	}
	return found
}

// suffix strippers for related-file matching: _v2, -1.5, _20230101,
// -2023-01-01 and similar trailing markers.
var relatedSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`[_\-](v?\d+\.?\d*)$`),
	regexp.MustCompile(`[_\-]\d{8}$`),
	regexp.MustCompile(`[_\-]\d{4}-\d{2}-\d{2}$`),
}

// findRelatedFiles returns sibling data files sharing the same base name
// once version/date suffixes are stripped.
func (f *Finder) findRelatedFiles(dataAbs string) []string {
	base := strings.TrimSuffix(filepath.Base(dataAbs), filepath.Ext(dataAbs))
	for _, re := range relatedSuffixes {
		base = re.ReplaceAllString(base, "")
	}

	var related []string
	dir := filepath.Dir(dataAbs)
	for _, ext := range f.dataExtensions {
		matches, err := filepath.Glob(filepath.Join(dir, base+"*"+ext))
		if err != nil {
			continue
		}
		related = append(related, matches...)
	}
	return related
}

// IsSystemFile reports whether a path is a system/project file that can
// never be a data companion: a numbered notebook, a known setup script,
// or anything inside an excluded directory segment.
func IsSystemFile(path string) bool {
	name := strings.ToLower(filepath.Base(path))

	if strings.HasSuffix(name, ".ipynb") && numberedNotebook.MatchString(name) {
		return true
	}
	if systemScripts[name] {
		return true
	}

	for _, segment := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if excludedDirs[segment] {
			return true
		}
	}
	return false
}

func hasProjectMarkers(dir string) bool {
	for _, marker := range projectMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// dedupeExcluding sorts, removes duplicates, and drops the excluded path.
func dedupeExcluding(paths []string, exclude string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if abs == exclude || seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	sort.Strings(out)
	return out
}
