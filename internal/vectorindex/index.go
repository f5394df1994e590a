// Package vectorindex stores embedding vectors with aligned metadata
// records and serves cosine-similarity search over them.
//
// The store is append-only: each Add assigns the next ordinal position,
// and the ordinal is the join key between the vector store, the metadata
// store and the filepath map. Removal happens only through compaction,
// which rebuilds all three stores together.
package vectorindex

import (
	"fmt"
	"sort"
	"sync"

	"fairsearch/internal/embedder"
	"fairsearch/pkg/types"
)

// Stats summarizes index contents.
type Stats struct {
	Count       int `json:"count"`
	UniqueFiles int `json:"unique_files"`
	Dimension   int `json:"dimension"`
}

// Index is an in-memory vector index over metadata records. All methods
// are safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	dim       int
	vectors   [][]float32
	records   []*types.Record
	filepaths map[string][]int
}

// New creates an empty index for vectors of the given dimension.
func New(dim int) *Index {
	return &Index{
		dim:       dim,
		filepaths: make(map[string][]int),
	}
}

// Dimension returns the vector dimension the index accepts.
func (idx *Index) Dimension() int {
	return idx.dim
}

// Add appends a record with its vector and returns the assigned ordinal.
// The vector is normalized to unit length on the way in; a wrong-size
// vector is rejected before any store is touched.
func (idx *Index) Add(rec *types.Record, vector []float32) (int, error) {
	if len(vector) != idx.dim {
		return 0, fmt.Errorf("%w: vector has %d dimensions, index expects %d",
			types.ErrDimensionMismatch, len(vector), idx.dim)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	ordinal := len(idx.vectors)
	idx.vectors = append(idx.vectors, embedder.NormalizeVector(vector))
	idx.records = append(idx.records, rec)
	idx.filepaths[rec.Filepath] = append(idx.filepaths[rec.Filepath], ordinal)
	return ordinal, nil
}

// NoThreshold disables score filtering in Search. Similarity of unit
// vectors spans [-1, 1], so nothing scores below it.
const NoThreshold = -1.0

// Search returns up to topK results with similarity at or above
// threshold, best first. Duplicate filepaths are collapsed to their
// highest-scoring occurrence before topK is applied. Pass NoThreshold
// to keep every match.
func (idx *Index) Search(query []float32, topK int, threshold float64) ([]types.SearchResult, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			types.ErrDimensionMismatch, len(query), idx.dim)
	}
	if topK <= 0 {
		return nil, nil
	}

	q := embedder.NormalizeVector(query)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		ordinal int
		score   float64
	}
	candidates := make([]scored, 0, len(idx.vectors))
	for i, v := range idx.vectors {
		score := innerProduct(q, v)
		if score >= threshold {
			candidates = append(candidates, scored{ordinal: i, score: score})
		}
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		return candidates[a].ordinal < candidates[b].ordinal
	})

	seen := make(map[string]bool)
	results := make([]types.SearchResult, 0, topK)
	for _, c := range candidates {
		rec := idx.records[c.ordinal]
		if seen[rec.Filepath] {
			continue
		}
		seen[rec.Filepath] = true
		results = append(results, types.SearchResult{
			Record:          *rec,
			SimilarityScore: c.score,
			Ordinal:         c.ordinal,
		})
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

// Record returns the record at an ordinal.
func (idx *Index) Record(ordinal int) (*types.Record, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if ordinal < 0 || ordinal >= len(idx.records) {
		return nil, false
	}
	return idx.records[ordinal], true
}

// VectorFor returns the stored vector for a filepath's first occurrence.
func (idx *Index) VectorFor(path string) ([]float32, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ordinals, ok := idx.filepaths[path]
	if !ok || len(ordinals) == 0 {
		return nil, false
	}
	v := idx.vectors[ordinals[0]]
	out := make([]float32, len(v))
	copy(out, v)
	return out, true
}

// Records returns all records in ordinal order. The slice is a copy;
// the records are shared.
func (idx *Index) Records() []*types.Record {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]*types.Record, len(idx.records))
	copy(out, idx.records)
	return out
}

// Contains reports whether a filepath is indexed.
func (idx *Index) Contains(path string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.filepaths[path]) > 0
}

// Stats returns current index statistics.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return Stats{
		Count:       len(idx.vectors),
		UniqueFiles: len(idx.filepaths),
		Dimension:   idx.dim,
	}
}

// RemoveDuplicates rebuilds the index keeping only the first ordinal for
// each filepath. All three stores are rebuilt together so ordinals stay
// aligned. Returns the number of entries removed.
func (idx *Index) RemoveDuplicates() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	keep := make([]bool, len(idx.records))
	first := make(map[string]bool, len(idx.filepaths))
	for i, rec := range idx.records {
		if !first[rec.Filepath] {
			first[rec.Filepath] = true
			keep[i] = true
		}
	}

	newVectors := make([][]float32, 0, len(first))
	newRecords := make([]*types.Record, 0, len(first))
	newPaths := make(map[string][]int, len(first))
	for i, k := range keep {
		if !k {
			continue
		}
		ordinal := len(newVectors)
		newVectors = append(newVectors, idx.vectors[i])
		newRecords = append(newRecords, idx.records[i])
		newPaths[idx.records[i].Filepath] = append(newPaths[idx.records[i].Filepath], ordinal)
	}

	removed := len(idx.vectors) - len(newVectors)
	idx.vectors = newVectors
	idx.records = newRecords
	idx.filepaths = newPaths
	return removed
}

// innerProduct of two unit vectors is their cosine similarity.
func innerProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
