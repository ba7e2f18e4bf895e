// Package domain defines the core business entities for Docia.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ChunkDraft: A page or slide span produced by an extractor
//   - Record: A persisted chunk with its embedding and metadata
//   - Filter: AND-equality constraints over record metadata
//   - SearchResult: A ranked hit with a discrete relevance score
//
// A document has no record of its own. It exists only as the set of
// records sharing a doc_id.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
