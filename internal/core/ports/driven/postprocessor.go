package driven

import "github.com/custodia-labs/docia/internal/core/domain"

// Chunker splits one page or slide of normalised text into token-bounded,
// section-aware chunk drafts.
type Chunker interface {
	// Chunk splits text from the given page. label is the section used when
	// the whole page fits in one chunk and before any heading is seen.
	Chunk(text string, page int, label string) []domain.ChunkDraft

	// ChunkSize returns the token budget.
	ChunkSize() int
}
