//go:build !sqlite_cgo

package storage

// Pure Go SQLite, no C compiler required.
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

// DriverName is the SQLite driver to use
const DriverName = "sqlite"
