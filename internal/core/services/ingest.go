package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
	"github.com/custodia-labs/docia/internal/core/ports/driving"
	"github.com/custodia-labs/docia/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService extracts files and hands their chunks to the retrieval
// service.
type IngestService struct {
	extractors driven.ExtractorRegistry
	retrieval  driving.RetrievalService
	now        func() time.Time
}

// NewIngestService creates an ingest service.
func NewIngestService(extractors driven.ExtractorRegistry, retrieval driving.RetrievalService) *IngestService {
	return &IngestService{
		extractors: extractors,
		retrieval:  retrieval,
		now:        time.Now,
	}
}

// Supports reports whether the file format can be ingested.
func (s *IngestService) Supports(path string) bool {
	return s.extractors.Supports(path)
}

// IngestFile extracts, chunks and indexes one file.
func (s *IngestService) IngestFile(
	ctx context.Context,
	path string,
	overrides domain.DocumentMetadata,
	uploadedBy string,
) (*domain.IngestResult, error) {
	logger.Section("Ingest")
	logger.Debug("File: %s (uploaded by %q)", path, uploadedBy)
	start := time.Now()

	extraction, err := s.extractors.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", path, err)
	}
	if extraction.IsEmpty() {
		return nil, fmt.Errorf("%w: no text extracted from %s", domain.ErrNothingToIndex, path)
	}

	meta := MergeMetadata(extraction.Metadata, overrides, s.now())
	logger.Debug("Metadata: title=%q specialty=%s year=%d type=%s pages=%d",
		meta.Title, meta.Specialty, meta.Year, meta.Type, meta.PageCount)

	docID, err := s.retrieval.AddDocument(ctx, extraction.Chunks, meta, uploadedBy)
	if err != nil {
		return nil, err
	}
	logger.Since(start, "Indexed %s as %s", path, docID)

	return &domain.IngestResult{
		DocID:  docID,
		Title:  meta.Title,
		Path:   path,
		Chunks: len(extraction.Chunks),
		Tokens: extraction.TotalTokens(),
	}, nil
}

// MergeMetadata combines extracted metadata with caller overrides. Non-empty
// override fields win.
func MergeMetadata(extracted domain.ExtractionMetadata, overrides domain.DocumentMetadata, now time.Time) domain.DocumentMetadata {
	meta := domain.DocumentMetadata{
		Title:     extracted.Title,
		Type:      extracted.Type,
		PageCount: extracted.PageCount,
		Specialty: domain.DefaultSpecialty,
		Year:      now.Year(),
	}
	if overrides.Title != "" {
		meta.Title = overrides.Title
	}
	if overrides.Type != "" {
		meta.Type = overrides.Type
	}
	if overrides.Specialty != "" {
		meta.Specialty = overrides.Specialty
	}
	if overrides.Year != 0 {
		meta.Year = overrides.Year
	}
	if overrides.PageCount != 0 {
		meta.PageCount = overrides.PageCount
	}
	if meta.Type == "" {
		meta.Type = domain.DefaultDocumentType
	}
	return meta
}
