package types

// SearchResult represents a single search result with relevance information.
type SearchResult struct {
	// Record is the metadata stored alongside the matching vector.
	Record Record `json:"record"`

	// SimilarityScore is the inner product of the unit-norm query and
	// stored vectors, equal to their cosine similarity.
	SimilarityScore float64 `json:"similarity_score"`

	// Ordinal is the storage position of the matching vector. It is the
	// join key between the vector store and the metadata store.
	Ordinal int `json:"ordinal"`
}
