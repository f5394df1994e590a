package types

import "errors"

// Domain errors. Per-file errors (validation, extraction, discovery,
// judgment) are collected during batch operations and never abort them.
// Structural errors (index inconsistency, dimension mismatch) are fatal
// for the operation that hits them.
var (
	// ErrValidation indicates a file failed signature or size checks.
	ErrValidation = errors.New("file validation failed")

	// ErrExtraction indicates the metadata extractor reported a failure.
	ErrExtraction = errors.New("metadata extraction failed")

	// ErrDiscovery indicates a companion candidate could not be read or
	// decoded in any supported encoding.
	ErrDiscovery = errors.New("companion discovery failed")

	// ErrJudgment indicates the relevance judgment collaborator errored
	// or timed out. Callers degrade to an uncertain classification.
	ErrJudgment = errors.New("relevance judgment failed")

	// ErrIndexInconsistent indicates the persisted index artifacts
	// disagree. An inconsistent index must not serve search results.
	ErrIndexInconsistent = errors.New("index artifacts inconsistent")

	// ErrDimensionMismatch indicates a loaded index and the active
	// embedding model disagree on vector dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNoIndex indicates no persisted index exists yet.
	ErrNoIndex = errors.New("no index found; build one first")
)

// FileError records one failed file during a batch operation.
type FileError struct {
	Filepath string `json:"filepath"`
	Message  string `json:"error"`
}
