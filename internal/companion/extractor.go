package companion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"fairsearch/pkg/types"
)

// Extraction is the parsed content of one companion document. Which
// fields are populated depends on DocType.
type Extraction struct {
	Path    string
	DocType types.DocType

	// readme
	Content  string
	Sections map[string]string

	// citation
	DOI        string
	Authors    []string
	Title      string
	Year       string
	URL        string
	RawContent string

	// script
	Language  string
	Docstring string
	Comments  []string
	Imports   []string

	// key/value hints common to readme and script parsing
	Metadata map[string]string
}

// Extraction bounds. Fixed, not configurable, to keep searchable text
// bounded in size.
const (
	maxReadmeContent   = 5000
	maxSummaryReadme   = 1000
	maxCitationPreview = 500
	maxScriptComments  = 20
	maxSummaryComments = 5
	minCommentLength   = 10
)

// Extractor parses discovered companion files into structured content.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ReadTextFile reads a file trying utf-8 first and falling back to a
// latin-1 interpretation. Content that still looks binary afterwards is
// reported as undecodable rather than passed downstream.
func ReadTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrDiscovery, err)
	}

	var content string
	if utf8.Valid(data) {
		content = string(data)
	} else {
		content = decodeLatin1(data)
	}

	if looksBinary(content) {
		return "", fmt.Errorf("%w: could not decode %s", types.ErrDiscovery, filepath.Base(path))
	}
	return content, nil
}

// decodeLatin1 maps each byte to its code point. Never fails, which is
// why binary detection happens afterwards.
func decodeLatin1(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

// looksBinary reports whether decoded content is dominated by NUL bytes,
// the telltale of a binary file run through a byte decoder.
func looksBinary(content string) bool {
	if content == "" {
		return false
	}
	sample := content
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	nuls := strings.Count(sample, "\x00")
	return nuls > len(sample)/20
}

var (
	doiPattern     = regexp.MustCompile(`10\.\d{4,}/\S+`)
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	yearPattern    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	authorsPattern = regexp.MustCompile(`(?i)authors?:?\s*([^\n]+)`)
	headingPattern = regexp.MustCompile(`^#+\s+(.+)$`)

	pyDocstring = regexp.MustCompile(`(?s)"""(.*?)"""`)
	pyImport    = regexp.MustCompile(`(?m)^import\s+(\S+)`)
	pyFrom      = regexp.MustCompile(`(?m)^from\s+(\S+)`)
	hashComment = regexp.MustCompile(`(?m)#\s*(.+)$`)
)

// readmeHints are key/value patterns scanned in README content.
var readmeHints = map[string]*regexp.Regexp{
	"contact":     regexp.MustCompile(`(?i)contact:?\s*([^\n]+)`),
	"email":       regexp.MustCompile(`[\w.-]+@[\w.-]+`),
	"version":     regexp.MustCompile(`(?i)version:?\s*([^\n]+)`),
	"license":     regexp.MustCompile(`(?i)license:?\s*([^\n]+)`),
	"date":        regexp.MustCompile(`(?i)date:?\s*([^\n]+)`),
	"institution": regexp.MustCompile(`(?i)(?:institution|organization):?\s*([^\n]+)`),
}

// scriptHints are key/value patterns scanned in script comments.
var scriptHints = map[string]*regexp.Regexp{
	"author":      regexp.MustCompile(`(?i)(?:author|created by):?\s*([^\n]+)`),
	"date":        regexp.MustCompile(`(?i)(?:date|created):?\s*(\d{4}-\d{2}-\d{2})`),
	"version":     regexp.MustCompile(`(?i)version:?\s*([^\n]+)`),
	"description": regexp.MustCompile(`(?i)description:?\s*([^\n]+)`),
}

// ExtractReadme parses a README into content, heading-split sections and
// metadata hints.
func (e *Extractor) ExtractReadme(path string) (*Extraction, error) {
	content, err := ReadTextFile(path)
	if err != nil {
		return nil, err
	}

	result := &Extraction{
		Path:     path,
		DocType:  types.DocReadme,
		Content:  truncate(content, maxReadmeContent),
		Metadata: extractHints(content, readmeHints),
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".md" || ext == ".rst" {
		result.Sections = parseSections(content)
	}
	return result, nil
}

// ExtractCitation pulls DOI, URL, year and author list out of a citation
// file via regex scanning.
func (e *Extractor) ExtractCitation(path string) (*Extraction, error) {
	content, err := ReadTextFile(path)
	if err != nil {
		return nil, err
	}

	result := &Extraction{
		Path:       path,
		DocType:    types.DocCitation,
		RawContent: truncate(content, maxCitationPreview),
	}

	result.DOI = doiPattern.FindString(content)
	result.URL = urlPattern.FindString(content)
	result.Year = yearPattern.FindString(content)

	if m := authorsPattern.FindStringSubmatch(content); m != nil {
		for _, author := range strings.Split(m[1], ",") {
			if author = strings.TrimSpace(author); author != "" {
				result.Authors = append(result.Authors, author)
			}
		}
	}
	return result, nil
}

// ExtractScript pulls docstring, imports and meaningful comments out of
// a processing script.
func (e *Extractor) ExtractScript(path string) (*Extraction, error) {
	content, err := ReadTextFile(path)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	result := &Extraction{
		Path:     path,
		DocType:  types.DocScript,
		Language: strings.TrimPrefix(ext, "."),
		Metadata: extractHints(content, scriptHints),
	}

	if ext == ".py" {
		if m := pyDocstring.FindStringSubmatch(content); m != nil {
			result.Docstring = strings.TrimSpace(m[1])
		}
		for _, m := range pyImport.FindAllStringSubmatch(content, -1) {
			result.Imports = append(result.Imports, m[1])
		}
		for _, m := range pyFrom.FindAllStringSubmatch(content, -1) {
			result.Imports = append(result.Imports, m[1])
		}
	}

	if ext == ".py" || ext == ".r" || ext == ".sh" {
		for _, m := range hashComment.FindAllStringSubmatch(content, -1) {
			comment := strings.TrimSpace(m[1])
			if len(comment) > minCommentLength {
				result.Comments = append(result.Comments, comment)
				if len(result.Comments) >= maxScriptComments {
					break
				}
			}
		}
	}
	return result, nil
}

// parseSections splits markdown/rst content on headings. Content before
// the first heading lands in "introduction".
func parseSections(content string) map[string]string {
	sections := make(map[string]string)
	current := "introduction"
	var buf []string

	flush := func() {
		if len(buf) > 0 {
			sections[current] = strings.Join(buf, "\n")
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			flush()
			current = strings.ReplaceAll(strings.ToLower(m[1]), " ", "_")
			buf = nil
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return sections
}

func extractHints(content string, hints map[string]*regexp.Regexp) map[string]string {
	found := make(map[string]string)
	for key, pattern := range hints {
		m := pattern.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		if len(m) > 1 {
			found[key] = strings.TrimSpace(m[1])
		} else {
			found[key] = strings.TrimSpace(m[0])
		}
	}
	if len(found) == 0 {
		return nil
	}
	return found
}

// CreateSummary concatenates bounded slices of each extraction into the
// companion portion of a record's searchable text: up to 1000 chars of
// README content plus its metadata pairs, citation DOI/authors/title,
// and the first 5 meaningful script comments.
func (e *Extractor) CreateSummary(docs []*Extraction) string {
	var parts []string
	add := func(s string) {
		if s = cleanText(s); s != "" {
			parts = append(parts, s)
		}
	}

	for _, doc := range docs {
		switch doc.DocType {
		case types.DocReadme:
			add(truncate(doc.Content, maxSummaryReadme))
			for _, key := range sortedStringKeys(doc.Metadata) {
				add(key + ": " + doc.Metadata[key])
			}

		case types.DocCitation:
			if doc.DOI != "" {
				add("DOI: " + doc.DOI)
			}
			if len(doc.Authors) > 0 {
				add("Authors: " + strings.Join(doc.Authors, ", "))
			}
			add(doc.Title)

		case types.DocScript:
			add(doc.Docstring)
			comments := doc.Comments
			if len(comments) > maxSummaryComments {
				comments = comments[:maxSummaryComments]
			}
			for _, comment := range comments {
				add(comment)
			}
		}
	}
	return strings.Join(parts, " ")
}

// Record converts an extraction into the companion record attached to a
// data file's metadata.
func (x *Extraction) Record(confidence float64, reason string) types.CompanionRecord {
	return types.CompanionRecord{
		Path:       x.Path,
		DocType:    x.DocType,
		Confidence: confidence,
		Reason:     reason,
		DOI:        x.DOI,
		Authors:    x.Authors,
		Title:      x.Title,
		Year:       x.Year,
		URL:        x.URL,
		Fields:     x.Metadata,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	return strings.Join(strings.Fields(text), " ")
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// deterministic summary output
	sort.Strings(keys)
	return keys
}
