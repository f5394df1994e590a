//go:build !cgo_sqlite
// +build !cgo_sqlite

package embedder

// Compiled without the cgo_sqlite tag. The persistent embedding cache
// uses the pure Go SQLite implementation:
//
//	CGO_ENABLED=0 go build ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver for the persistent cache.
	DriverName = "sqlite"

	// BuildMode describes the current build configuration.
	BuildMode = "purego"
)
