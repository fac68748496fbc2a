// Package storage persists review runs in SQLite.
//
// Each run records one review of one file: the chunking trace, cost
// metrics, and the merged findings. Runs are append-only; re-reviewing
// a file creates a new run rather than updating an old one, so the
// history shows how a file's findings evolved.
//
// # Build Modes
//
// Two SQLite drivers are supported via build tags:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo" ./...   # mattn/go-sqlite3
//	CGO_ENABLED=0 go build ./...                      # modernc.org/sqlite (default)
//
// The pure Go driver needs no C compiler and is the default; the cgo
// driver is faster on large review histories.
//
// # Schema
//
// Two tables, versioned through semver-ordered migrations:
//
//	runs      one row per reviewed file
//	findings  one row per finding, cascade-deleted with its run
//
// The database opens in WAL mode with a single writer connection,
// which is the sweet spot for SQLite under concurrent MCP tool calls.
package storage
