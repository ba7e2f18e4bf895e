package driven

import (
	"context"

	"github.com/custodia-labs/docia/internal/core/domain"
)

// VectorStore is a durable, filterable nearest-neighbour index over records.
// A store is bound to one named collection, created on first use and
// reopened afterwards.
type VectorStore interface {
	// UpsertBatch writes records, replacing any with the same ID.
	UpsertBatch(ctx context.Context, records []domain.Record) error

	// Query returns up to k records matching the filter, ordered by
	// ascending cosine distance to the embedding. No matches is an empty
	// slice, not an error.
	Query(ctx context.Context, embedding []float32, k int, filter domain.Filter) ([]domain.ScoredRecord, error)

	// GetAllMetadata returns the metadata of every record matching the filter.
	// An empty collection yields an empty slice.
	GetAllMetadata(ctx context.Context, filter domain.Filter) ([]domain.RecordMetadata, error)

	// DeleteBy removes all records matching the filter and returns how many
	// were removed. A filter matching nothing is not an error.
	DeleteBy(ctx context.Context, filter domain.Filter) (int, error)

	// Count returns the number of records in the collection.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
