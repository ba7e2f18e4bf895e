package mcp

import (
	"context"

	"github.com/custodia-labs/docia/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.SearchResult
	stats   domain.CollectionStats
	docs    []domain.DocumentSummary
	deleted bool
	err     error

	lastQuery  string
	lastOpts   domain.SearchOptions
	lastUserID string
}

func (m *mockRetrievalService) AddDocument(
	_ context.Context,
	_ []domain.ChunkDraft,
	_ domain.DocumentMetadata,
	_ string,
) (string, error) {
	return "", m.err
}

func (m *mockRetrievalService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) []domain.SearchResult {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results
}

func (m *mockRetrievalService) GetCollectionStats(_ context.Context, userID string) (domain.CollectionStats, error) {
	m.lastUserID = userID
	return m.stats, m.err
}

func (m *mockRetrievalService) GetUserDocuments(_ context.Context, userID string) ([]domain.DocumentSummary, error) {
	m.lastUserID = userID
	return m.docs, m.err
}

func (m *mockRetrievalService) DeleteDocument(_ context.Context, _ string) (bool, error) {
	return m.deleted, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result *domain.IngestResult
	err    error

	lastPath      string
	lastOverrides domain.DocumentMetadata
	lastUser      string
}

func (m *mockIngestService) IngestFile(
	_ context.Context,
	path string,
	overrides domain.DocumentMetadata,
	uploadedBy string,
) (*domain.IngestResult, error) {
	m.lastPath = path
	m.lastOverrides = overrides
	m.lastUser = uploadedBy
	return m.result, m.err
}

func (m *mockIngestService) Supports(_ string) bool {
	return true
}
