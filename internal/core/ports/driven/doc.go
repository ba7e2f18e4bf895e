// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Extractor: Turns a source file into chunk drafts
//   - Chunker: Splits page text into token-bounded chunks
//   - Tokenizer: Counts tokens for chunk budgeting
//   - EmbeddingService: Generates vector embeddings
//   - VectorStore: Persists records and answers filtered kNN queries
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Observer: Receives search and ingestion events for metrics
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or post-processor package
package driven
