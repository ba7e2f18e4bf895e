// Package pptx extracts slide text from PowerPoint (OOXML) presentations.
package pptx

import (
	"archive/zip"
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docia/internal/adapters/driven/tokenizer/estimate"
	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
	"github.com/custodia-labs/docia/internal/logger"
	"github.com/custodia-labs/docia/internal/normalisers/text"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const (
	// DocumentType is the metadata type assigned to presentations.
	DocumentType = "presentation"

	// FallbackTitle is used when the core properties carry no title.
	FallbackTitle = "Untitled presentation"
)

// progressEvery is the slide interval between progress log lines.
const progressEvery = 10

// Extractor produces one chunk per non-empty slide.
type Extractor struct {
	tokenizer driven.Tokenizer
}

// New creates a PPTX extractor. A nil tokenizer uses the estimate tokenizer.
func New(tok driven.Tokenizer) *Extractor {
	if tok == nil {
		tok = estimate.New()
	}
	return &Extractor{tokenizer: tok}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "pptx"
}

// Extensions returns the file extensions handled.
func (e *Extractor) Extensions() []string {
	return []string{".pptx"}
}

// SlideLabel is the section label for a slide without a title.
func SlideLabel(n int) string {
	return fmt.Sprintf("Slide %d", n)
}

// Extract reads every slide of the presentation at path. An unreadable file
// yields an empty extraction.
func (e *Extractor) Extract(ctx context.Context, path string) (*domain.Extraction, error) {
	logger.Section("PPTX Extraction")

	zr, err := zip.OpenReader(path)
	if err != nil {
		logger.Warn("pptx: cannot open %s: %v", path, err)
		return &domain.Extraction{}, nil
	}
	defer zr.Close()

	files := indexFiles(&zr.Reader)
	slidePaths := slideOrder(files)
	if len(slidePaths) == 0 {
		if _, ok := files[presentationPath]; !ok {
			logger.Warn("pptx: %s is not a presentation", path)
			return &domain.Extraction{}, nil
		}
	}

	title := coreTitle(files)
	if title == "" {
		title = FallbackTitle
	}
	logger.Debug("pptx: title %q, %d slides", title, len(slidePaths))

	var chunks []domain.ChunkDraft
	for i, slidePath := range slidePaths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extracting %s: %w", path, err)
		}
		n := i + 1

		data, err := readFile(files[slidePath])
		if err != nil {
			logger.Warn("pptx: %s slide %d: %v", path, n, err)
			continue
		}
		slide, err := parseSlide(data)
		if err != nil {
			logger.Warn("pptx: %s slide %d: %v", path, n, err)
			continue
		}

		combined := text.Normalise(slide.title + "\n\n" + strings.Join(slide.bodies, "\n"))
		if combined == "" {
			continue
		}

		section := strings.Join(text.Lines(slide.title), " ")
		if section == "" {
			section = SlideLabel(n)
		}

		chunks = append(chunks, domain.ChunkDraft{
			Text:       combined,
			Page:       n,
			Section:    section,
			TokenCount: e.tokenizer.Count(combined),
			Kind:       domain.ChunkKindSlide,
		})

		if n%progressEvery == 0 {
			logger.Info("pptx: processed %d/%d slides", n, len(slidePaths))
		}
	}
	logger.Debug("pptx: %d slides extracted", len(chunks))

	return &domain.Extraction{
		Metadata: domain.ExtractionMetadata{
			Title:     title,
			PageCount: len(slidePaths),
			Type:      DocumentType,
		},
		Chunks: chunks,
	}, nil
}
