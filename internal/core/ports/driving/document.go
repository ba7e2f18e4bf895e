package driving

import (
	"context"

	"github.com/custodia-labs/docia/internal/core/domain"
)

// IngestService turns source files into indexed documents.
type IngestService interface {
	// IngestFile extracts, chunks and indexes one file. Non-empty fields of
	// overrides replace extracted metadata. Returns domain.ErrNothingToIndex
	// when the file yields no text and domain.ErrUnsupportedType for
	// unknown formats.
	IngestFile(ctx context.Context, path string, overrides domain.DocumentMetadata, uploadedBy string) (*domain.IngestResult, error)

	// Supports reports whether the file format can be ingested.
	Supports(path string) bool
}
