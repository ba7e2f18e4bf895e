// Package sqlite provides a SQLite-backed vector store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Each named collection holds records with
// their embedding (little-endian float32 blob), text and typed metadata columns.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Search
//
// Metadata filters are pushed down to SQL. Cosine distance is computed in Go over
// the filtered rows, which suits collections of tens of thousands of chunks.
//
// # Data Location
//
// By default, the database is stored at ~/.docia/data/docia.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
