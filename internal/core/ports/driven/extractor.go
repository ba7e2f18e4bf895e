package driven

import (
	"context"

	"github.com/custodia-labs/docia/internal/core/domain"
)

// Extractor turns a source file into chunk drafts and file metadata.
//
// A file that cannot be opened or parsed yields an empty extraction and a
// nil error. The error return is reserved for cancellation.
type Extractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// Extensions returns the lower-case file extensions handled, with dot.
	Extensions() []string

	// Extract reads the file at path.
	Extract(ctx context.Context, path string) (*domain.Extraction, error)
}

// ExtractorRegistry selects the extractor for a file.
type ExtractorRegistry interface {
	// Extract dispatches on the file extension.
	// Returns domain.ErrUnsupportedType when no extractor handles it.
	Extract(ctx context.Context, path string) (*domain.Extraction, error)

	// Register adds an extractor to the registry.
	Register(extractor Extractor)

	// Supports reports whether a file path has a registered extension.
	Supports(path string) bool

	// Extensions returns every registered extension.
	Extensions() []string
}
