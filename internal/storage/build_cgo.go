//go:build sqlite_cgo

package storage

// CGO SQLite, enabled with:
//   CGO_ENABLED=1 go build -tags "sqlite_cgo" ./...
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

// DriverName is the SQLite driver to use
const DriverName = "sqlite3"
