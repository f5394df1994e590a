//go:build cgo_sqlite
// +build cgo_sqlite

package embedder

// Compiled with the cgo_sqlite tag. The persistent embedding cache uses
// the C SQLite driver, which is faster for large caches:
//
//	CGO_ENABLED=1 go build -tags "cgo_sqlite" ./...
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver for the persistent cache.
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration.
	BuildMode = "cgo"
)
