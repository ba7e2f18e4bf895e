package domain

// ChunkKindSlide marks chunks produced from a slide deck.
const ChunkKindSlide = "slide"

// ChunkDraft is a unit of retrievable text before it is attached to a document.
// Drafts carry neither a doc_id nor an uploader; the retrieval service adds both.
type ChunkDraft struct {
	// Text is the normalised chunk text. Never empty.
	Text string `json:"text"`

	// Page is the 1-based page or slide number.
	Page int `json:"page"`

	// Section is the inferred heading or a fallback label such as "Page 3".
	Section string `json:"section"`

	// TokenCount is the token length of Text under the shared tokenizer.
	TokenCount int `json:"token_count"`

	// Kind is empty for document pages and ChunkKindSlide for slides.
	Kind string `json:"kind,omitempty"`
}

// ExtractionMetadata describes the source file as seen by an extractor.
type ExtractionMetadata struct {
	Title     string `json:"title,omitempty"`
	PageCount int    `json:"page_count,omitempty"`
	Type      string `json:"type,omitempty"`
}

// Extraction is the output of an extractor.
// An unreadable source yields the zero Extraction.
type Extraction struct {
	Metadata ExtractionMetadata `json:"metadata"`
	Chunks   []ChunkDraft       `json:"chunks"`
}

// IsEmpty reports whether the extraction has nothing to index.
func (e *Extraction) IsEmpty() bool {
	return e == nil || len(e.Chunks) == 0
}

// TotalTokens sums the token counts of all chunks.
func (e *Extraction) TotalTokens() int {
	if e == nil {
		return 0
	}
	total := 0
	for _, c := range e.Chunks {
		total += c.TokenCount
	}
	return total
}
