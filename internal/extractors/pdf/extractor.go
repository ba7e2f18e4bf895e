// Package pdf extracts page text and titles from PDF documents.
package pdf

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
	"github.com/custodia-labs/docia/internal/logger"
	"github.com/custodia-labs/docia/internal/normalisers/text"
	"github.com/custodia-labs/docia/internal/postprocessors/chunker"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// DocumentType is the metadata type assigned to PDF documents.
const DocumentType = "guideline"

// progressEvery is the page interval between progress log lines.
const progressEvery = 10

// Extractor reads PDFs page by page and chunks each page.
type Extractor struct {
	chunker driven.Chunker
	open    opener
}

// New creates a PDF extractor that splits pages with the given chunker.
// A nil chunker uses chunker.New().
func New(c driven.Chunker) *Extractor {
	return newWithOpener(c, openFile)
}

func newWithOpener(c driven.Chunker, open opener) *Extractor {
	if c == nil {
		c = chunker.New()
	}
	return &Extractor{chunker: c, open: open}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "pdf"
}

// Extensions returns the file extensions handled.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract reads every page of the PDF at path. An unreadable file yields
// an empty extraction.
func (e *Extractor) Extract(ctx context.Context, path string) (result *domain.Extraction, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("pdf: %s: parser panic: %v", path, r)
			result, err = &domain.Extraction{}, nil
		}
	}()

	logger.Section("PDF Extraction")
	doc, openErr := e.open(path)
	if openErr != nil {
		logger.Warn("pdf: cannot open %s: %v", path, openErr)
		return &domain.Extraction{}, nil
	}
	defer doc.Close()

	pages := doc.NumPages()
	pageTexts := make([]string, 0, pages)
	for n := 1; n <= pages; n++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extracting %s: %w", path, err)
		}
		raw, pageErr := doc.PageText(n)
		if pageErr != nil {
			logger.Warn("pdf: %s page %d: %v", path, n, pageErr)
			raw = ""
		}
		pageTexts = append(pageTexts, text.Normalise(raw))
	}

	firstPage := ""
	if len(pageTexts) > 0 {
		firstPage = pageTexts[0]
	}
	title := extractTitle(doc.MetadataTitle(), firstPage)
	logger.Debug("pdf: title %q, %d pages", title, pages)

	var chunks []domain.ChunkDraft
	for i, pageText := range pageTexts {
		n := i + 1
		if pageText == "" {
			continue
		}
		chunks = append(chunks, e.chunker.Chunk(pageText, n, chunker.PageLabel(n))...)
		if n%progressEvery == 0 {
			logger.Info("pdf: processed %d/%d pages", n, pages)
		}
	}
	logger.Debug("pdf: %d chunks extracted", len(chunks))

	return &domain.Extraction{
		Metadata: domain.ExtractionMetadata{
			Title:     title,
			PageCount: pages,
			Type:      DocumentType,
		},
		Chunks: chunks,
	}, nil
}
