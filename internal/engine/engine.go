// Package engine coordinates the indexing pipeline: validate -> extract
// metadata -> discover companions -> classify relevance -> textualize ->
// embed -> store, and serves search over the resulting index.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fairsearch/internal/archive"
	"fairsearch/internal/companion"
	"fairsearch/internal/config"
	"fairsearch/internal/embedder"
	"fairsearch/internal/logger"
	"fairsearch/internal/metadata"
	"fairsearch/internal/relevance"
	"fairsearch/internal/validator"
	"fairsearch/internal/vectorindex"
	"fairsearch/pkg/types"
)

// Companion caps per data file keep searchable text bounded.
const (
	maxReadmes       = 3
	maxCitations     = 2
	maxScripts       = 2
	maxDocumentation = 2
)

// IndexOptions controls per-file indexing behavior.
type IndexOptions struct {
	// Validate runs signature and size checks before extraction.
	Validate bool
	// IncludeCompanions discovers and classifies companion documents.
	IncludeCompanions bool
	// SearchParent extends companion discovery to the parent directory.
	SearchParent bool
	// ExtractArchives extracts and indexes archives found during
	// directory walks. A path pointing directly at an archive is always
	// extracted.
	ExtractArchives bool
}

// DefaultIndexOptions enables validation, companion discovery and
// archive extraction.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{Validate: true, IncludeCompanions: true, ExtractArchives: true}
}

// Engine is the top-level search engine facade.
type Engine struct {
	cfg         *config.Config
	registry    *metadata.Registry
	textualizer *metadata.Textualizer
	finder      *companion.Finder
	extractor   *companion.Extractor
	classifier  *relevance.Classifier
	validator   *validator.Validator
	embedder    embedder.Embedder
	archives    *archive.Handler
	index       *vectorindex.Index
}

// New creates an engine with a fresh empty index sized to the embedder's
// dimension. judge may be nil.
func New(cfg *config.Config, emb embedder.Embedder, judge relevance.Judge) *Engine {
	return &Engine{
		cfg:         cfg,
		registry:    metadata.DefaultRegistry(),
		textualizer: metadata.NewTextualizer(),
		finder:      companion.NewFinder(cfg),
		extractor:   companion.NewExtractor(),
		classifier:  relevance.NewClassifier(judge),
		validator:   validator.New(cfg),
		embedder:    emb,
		archives:    archive.NewHandler(cfg.TempDir, cfg.DataExtensions),
		index:       vectorindex.New(emb.Dimension()),
	}
}

// Load creates an engine backed by the index persisted in cfg.IndexDir.
// A missing index yields a fresh empty one; a corrupt or wrong-dimension
// index is an error.
func Load(cfg *config.Config, emb embedder.Embedder, judge relevance.Judge) (*Engine, error) {
	e := New(cfg, emb, judge)
	idx, err := vectorindex.Load(cfg.IndexDir, emb.Dimension())
	if err != nil {
		if errors.Is(err, types.ErrNoIndex) {
			return e, nil
		}
		return nil, err
	}
	e.index = idx
	return e, nil
}

// Save persists the index to the configured directory.
func (e *Engine) Save() error {
	return e.index.Save(e.cfg.IndexDir)
}

// Close releases the embedder and removes extracted archive directories.
func (e *Engine) Close() error {
	e.archives.Cleanup()
	return e.embedder.Close()
}

// Index returns the underlying vector index.
func (e *Engine) Index() *vectorindex.Index {
	return e.index
}

// IndexFile runs the full pipeline for one data file and adds it to the
// index. Nothing is written to any store unless every stage succeeds.
func (e *Engine) IndexFile(ctx context.Context, path string, opts IndexOptions) (*types.Record, error) {
	rec, vector, err := e.prepare(ctx, path, nil, opts)
	if err != nil {
		return nil, err
	}
	if _, err := e.index.Add(rec, vector); err != nil {
		return nil, err
	}
	return rec, nil
}

// prepare runs every pipeline stage up to (but not including) the index
// write, so partial failures never leave a half-indexed file.
func (e *Engine) prepare(ctx context.Context, path string, archCtx *types.ArchiveContext, opts IndexOptions) (*types.Record, []float32, error) {
	if opts.Validate {
		if ok, reason := e.validator.QuickValidate(path); !ok {
			return nil, nil, fmt.Errorf("%w: %s: %s", types.ErrValidation, filepath.Base(path), reason)
		}
	}

	rec, err := e.registry.Extract(path)
	if err != nil {
		return nil, nil, err
	}
	rec.ArchiveContext = archCtx

	text := e.textualizer.SearchableText(rec)
	if opts.IncludeCompanions {
		companionText := e.attachCompanions(ctx, rec, opts)
		text = e.textualizer.Combine(text, companionText)
	}

	emb, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, nil, err
	}
	return rec, emb.Vector, nil
}

// attachCompanions discovers, classifies and extracts companion docs,
// attaches the relevant ones to the record, and returns their combined
// summary text. Uncertain candidates are logged and excluded.
func (e *Engine) attachCompanions(ctx context.Context, rec *types.Record, opts IndexOptions) string {
	found := e.finder.FindCompanions(rec.Filepath, companion.FindOptions{
		SearchParent:   opts.SearchParent,
		SearchSiblings: true,
	})

	var report relevance.Report
	var docs []*companion.Extraction

	examine := func(paths []string, limit int, extract func(string) (*companion.Extraction, error)) {
		taken := 0
		for _, p := range paths {
			if taken == limit {
				break
			}
			content, err := companion.ReadTextFile(p)
			if err != nil {
				logger.Debug("skipping companion %s: %v", p, err)
				continue
			}

			cls := e.classifier.Classify(ctx, rec.Filename, p, content)
			report.Tally(p, cls)
			if cls.Label != relevance.LabelRelevant {
				if cls.Label == relevance.LabelUncertain {
					logger.Info("companion %s uncertain for %s: %s", filepath.Base(p), rec.Filename, cls.Reason)
				}
				continue
			}

			x, err := extract(p)
			if err != nil {
				logger.Debug("companion extraction failed for %s: %v", p, err)
				continue
			}
			docs = append(docs, x)
			rec.CompanionDocs = append(rec.CompanionDocs, x.Record(cls.Confidence, cls.Reason))
			taken++
		}
	}

	examine(found.Readmes, maxReadmes, e.extractor.ExtractReadme)
	examine(found.Citations, maxCitations, e.extractor.ExtractCitation)
	examine(found.Documentation, maxDocumentation, e.extractor.ExtractReadme)
	examine(found.Scripts, maxScripts, e.extractor.ExtractScript)

	if report.TotalExamined > 0 {
		logger.Debug("companions for %s: %d relevant, %d uncertain, %d not relevant",
			rec.Filename, len(report.Relevant), len(report.Uncertain), len(report.NotRelevant))
	}
	return e.extractor.CreateSummary(docs)
}

// Search embeds the query and returns the closest indexed files. An
// empty index is an error so callers can tell "nothing indexed yet"
// apart from "no matches".
func (e *Engine) Search(ctx context.Context, query string, topK int, threshold float64) ([]types.SearchResult, error) {
	if e.index.Stats().Count == 0 {
		return nil, fmt.Errorf("%w: nothing indexed yet, run indexing first", types.ErrNoIndex)
	}
	if topK <= 0 {
		topK = e.cfg.DefaultTopK
	}
	emb, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.index.Search(emb.Vector, topK, threshold)
}

// FindSimilar returns indexed files closest to an already-indexed file,
// excluding the file itself.
func (e *Engine) FindSimilar(path string, topK int) ([]types.SearchResult, error) {
	if topK <= 0 {
		topK = e.cfg.DefaultTopK
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	vector, ok := e.index.VectorFor(abs)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not indexed", types.ErrNoIndex, path)
	}

	results, err := e.index.Search(vector, topK+1, vectorindex.NoThreshold)
	if err != nil {
		return nil, err
	}
	out := make([]types.SearchResult, 0, topK)
	for _, r := range results {
		if r.Record.Filepath == abs {
			continue
		}
		out = append(out, r)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

// List returns all indexed records in ordinal order.
func (e *Engine) List() []*types.Record {
	return e.index.Records()
}

// Stats describes the engine's index and cache state.
type Stats struct {
	Index    vectorindex.Stats `json:"index"`
	Provider string            `json:"provider"`
	Model    string            `json:"model"`
}

// Stats returns current engine statistics.
func (e *Engine) Stats() Stats {
	return Stats{
		Index:    e.index.Stats(),
		Provider: e.embedder.Provider(),
		Model:    e.embedder.Model(),
	}
}

// Compact removes duplicate filepath entries, keeping each file's first
// occurrence, and persists the rebuilt index. Returns entries removed.
func (e *Engine) Compact() (int, error) {
	removed := e.index.RemoveDuplicates()
	if err := e.Save(); err != nil {
		return removed, err
	}
	return removed, nil
}

// Rebuild re-indexes every unique file currently in the index from
// scratch. Files that no longer exist are dropped with a logged warning.
func (e *Engine) Rebuild(ctx context.Context, opts IndexOptions) (*Report, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, rec := range e.index.Records() {
		if rec.ArchiveContext != nil {
			// extracted archive temp paths do not survive a rebuild
			continue
		}
		if !seen[rec.Filepath] {
			seen[rec.Filepath] = true
			paths = append(paths, rec.Filepath)
		}
	}

	e.index = vectorindex.New(e.embedder.Dimension())
	report := e.indexPaths(ctx, paths, opts)
	if err := e.Save(); err != nil {
		return report, err
	}
	return report, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func hasAnySuffix(path string, suffixes []string) bool {
	lower := strings.ToLower(path)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// discoverFiles walks root collecting data files and archives, skipping
// hidden directories.
func (e *Engine) discoverFiles(root string) (dataFiles, archives []string, err error) {
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		switch {
		case hasAnySuffix(path, e.cfg.DataExtensions):
			dataFiles = append(dataFiles, path)
		case hasAnySuffix(path, e.cfg.ArchiveExtensions):
			archives = append(archives, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return dataFiles, archives, nil
}
