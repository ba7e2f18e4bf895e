package driving

import (
	"context"

	"github.com/custodia-labs/docia/internal/core/domain"
)

// RetrievalService owns the ingestion write path and the query path over the
// document collection.
type RetrievalService interface {
	// AddDocument embeds and stores the chunks of one document and returns
	// its generated doc_id. An empty uploadedBy is recorded as the system
	// uploader.
	AddDocument(ctx context.Context, chunks []domain.ChunkDraft, meta domain.DocumentMetadata, uploadedBy string) (string, error)

	// Search returns ranked chunks for a query. Failures degrade to an empty
	// result and are logged; they never propagate.
	Search(ctx context.Context, query string, opts domain.SearchOptions) []domain.SearchResult

	// GetCollectionStats aggregates the collection, optionally for one user.
	GetCollectionStats(ctx context.Context, userID string) (domain.CollectionStats, error)

	// GetUserDocuments lists the documents uploaded by a user.
	GetUserDocuments(ctx context.Context, userID string) ([]domain.DocumentSummary, error)

	// DeleteDocument removes every record of a document and reports whether
	// anything was deleted.
	DeleteDocument(ctx context.Context, docID string) (bool, error)
}
