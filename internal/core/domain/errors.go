package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file format no extractor handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrNothingToIndex indicates an extraction or ingestion produced no chunks.
	ErrNothingToIndex = errors.New("nothing to index")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or could not be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrDimensionMismatch indicates an embedding whose length differs from
	// the collection's established dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrPartialIngestion indicates ingestion stopped after some batches
	// were already committed.
	ErrPartialIngestion = errors.New("partial ingestion")
)
