package engine

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fairsearch/internal/archive"
	"fairsearch/internal/logger"
	"fairsearch/pkg/types"
)

// Report summarizes one batch indexing operation. Per-file failures are
// collected here; only structural errors abort a batch.
type Report struct {
	Indexed  int               `json:"indexed"`
	Failed   int               `json:"failed"`
	Errors   []types.FileError `json:"errors,omitempty"`
	Duration time.Duration     `json:"duration"`
}

// HasErrors reports whether any file failed.
func (r *Report) HasErrors() bool {
	return r.Failed > 0
}

// IndexPath indexes a single data file, an archive, or a directory tree,
// whichever the path points at.
func (e *Engine) IndexPath(ctx context.Context, path string, opts IndexOptions) (*Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return e.IndexDirectory(ctx, path, opts)
	}
	if archive.IsArchive(path) {
		return e.IndexArchive(ctx, path, opts)
	}

	start := time.Now()
	report := &Report{}
	if _, err := e.IndexFile(ctx, path, opts); err != nil {
		report.Failed = 1
		report.Errors = append(report.Errors, types.FileError{Filepath: path, Message: err.Error()})
	} else {
		report.Indexed = 1
	}
	report.Duration = time.Since(start)
	return report, nil
}

// IndexDirectory indexes every data file and archive under root.
func (e *Engine) IndexDirectory(ctx context.Context, root string, opts IndexOptions) (*Report, error) {
	start := time.Now()

	dataFiles, archives, err := e.discoverFiles(root)
	if err != nil {
		return nil, err
	}
	logger.Info("found %d data files and %d archives under %s", len(dataFiles), len(archives), root)

	report := e.indexPaths(ctx, dataFiles, opts)

	if !opts.ExtractArchives && len(archives) > 0 {
		logger.Info("skipping %d archive(s), extraction disabled", len(archives))
		archives = nil
	}
	for _, archivePath := range archives {
		ar, err := e.IndexArchive(ctx, archivePath, opts)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, types.FileError{Filepath: archivePath, Message: err.Error()})
			continue
		}
		report.Indexed += ar.Indexed
		report.Failed += ar.Failed
		report.Errors = append(report.Errors, ar.Errors...)
	}

	report.Duration = time.Since(start)
	return report, nil
}

// IndexArchive extracts an archive and indexes the data files inside it.
// An unsafe or unreadable archive fails as a whole.
func (e *Engine) IndexArchive(ctx context.Context, archivePath string, opts IndexOptions) (*Report, error) {
	start := time.Now()

	dest, err := e.archives.Extract(archivePath)
	if err != nil {
		return nil, err
	}
	files, err := e.archives.FindDataFiles(dest, archivePath)
	if err != nil {
		return nil, err
	}
	logger.Info("archive %s contains %d data files", archivePath, len(files))

	report := &Report{}
	for _, f := range files {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		archCtx := f.Context
		rec, vector, err := e.prepare(ctx, f.Path, &archCtx, opts)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, types.FileError{Filepath: f.Path, Message: err.Error()})
			continue
		}
		if _, err := e.index.Add(rec, vector); err != nil {
			return report, err
		}
		report.Indexed++
	}

	report.Duration = time.Since(start)
	return report, nil
}

// indexPaths runs the pipeline over many files with a worker pool. The
// expensive stages run concurrently; index writes are funneled through a
// single goroutine so ordinal assignment stays serialized.
func (e *Engine) indexPaths(ctx context.Context, paths []string, opts IndexOptions) *Report {
	start := time.Now()
	report := &Report{}
	if len(paths) == 0 {
		report.Duration = time.Since(start)
		return report
	}

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	type prepared struct {
		rec    *types.Record
		vector []float32
	}

	var indexed int32
	var mu sync.Mutex // protects report.Errors and Failed

	writes := make(chan prepared, workers)
	writerDone := make(chan error, 1)
	go func() {
		for p := range writes {
			if _, err := e.index.Add(p.rec, p.vector); err != nil {
				writerDone <- err
				// drain so workers never block on a dead writer
				for range writes {
				}
				return
			}
			atomic.AddInt32(&indexed, 1)
		}
		writerDone <- nil
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			rec, vector, err := e.prepare(gctx, path, nil, opts)
			if err != nil {
				mu.Lock()
				report.Failed++
				report.Errors = append(report.Errors, types.FileError{Filepath: path, Message: err.Error()})
				mu.Unlock()
				logger.Debug("skipping %s: %v", path, err)
				return nil
			}
			select {
			case writes <- prepared{rec: rec, vector: vector}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	groupErr := g.Wait()
	close(writes)
	writeErr := <-writerDone

	report.Indexed = int(atomic.LoadInt32(&indexed))
	report.Duration = time.Since(start)

	if writeErr != nil {
		report.Errors = append(report.Errors, types.FileError{Filepath: "", Message: writeErr.Error()})
		report.Failed++
	}
	if groupErr != nil && ctx.Err() == nil {
		logger.Warn("batch indexing interrupted: %v", groupErr)
	}
	return report
}
