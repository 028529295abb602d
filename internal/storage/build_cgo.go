//go:build sqlite_cgo && !purego
// +build sqlite_cgo,!purego

package storage

// This file is compiled when building with CGO and the sqlite_cgo tag.
//
// Build command:
//   CGO_ENABLED=1 go build -tags "sqlite_cgo" ./...
//
// The C SQLite library is faster on very large sheets and is the
// recommended driver for production crawls over big directory trees.
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// SQLiteDriverName is the SQLite driver to use
	SQLiteDriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
