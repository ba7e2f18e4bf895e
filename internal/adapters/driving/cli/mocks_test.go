package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

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
	lastDocID  string
}

func (m *mockRetrievalService) AddDocument(
	_ context.Context,
	_ []domain.ChunkDraft,
	_ domain.DocumentMetadata,
	_ string,
) (string, error) {
	return "", m.err
}

func (m *mockRetrievalService) Search(_ context.Context, query string, opts domain.SearchOptions) []domain.SearchResult {
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

func (m *mockRetrievalService) DeleteDocument(_ context.Context, docID string) (bool, error) {
	m.lastDocID = docID
	return m.deleted, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
// Paths containing "empty" yield domain.ErrNothingToIndex.
type mockIngestService struct {
	paths         []string
	lastOverrides domain.DocumentMetadata
	lastUser      string
}

func (m *mockIngestService) IngestFile(
	_ context.Context,
	path string,
	overrides domain.DocumentMetadata,
	uploadedBy string,
) (*domain.IngestResult, error) {
	m.paths = append(m.paths, path)
	m.lastOverrides = overrides
	m.lastUser = uploadedBy
	if strings.Contains(path, "empty") {
		return nil, domain.ErrNothingToIndex
	}
	return &domain.IngestResult{
		DocID:  "general_" + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "_20240101_120000",
		Title:  "Title of " + filepath.Base(path),
		Path:   path,
		Chunks: 3,
		Tokens: 900,
	}, nil
}

func (m *mockIngestService) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".pdf" || ext == ".pptx"
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.Settings
	validateErr error
	pingErr     error
	set         map[string]string

	provider domain.AIProvider
	model    string
	apiKey   string
}

func (m *mockSettingsService) Get() (domain.Settings, error) {
	return m.settings, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if key == "unknown.key" {
		return errors.New("unknown setting")
	}
	if m.set == nil {
		m.set = make(map[string]string)
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"data_dir", "store.backend", "embedding.provider"}
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.provider = provider
	m.model = model
	m.apiKey = apiKey
	return nil
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) ValidateEmbeddingConfig(_ context.Context) error {
	return m.pingErr
}

type testServices struct {
	retrieval *mockRetrievalService
	ingest    *mockIngestService
	settings  *mockSettingsService
}

// setupTestServices injects fresh mocks and returns a cleanup func.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		retrieval: &mockRetrievalService{
			results: []domain.SearchResult{
				{
					ChunkID:  "cardiology_ESC_Chest_Pain_20240101_120000_chunk_0002",
					Text:     "High-sensitivity troponin at 0 and 1 hours rules out NSTEMI.",
					Distance: 0.35,
					Metadata: domain.RecordMetadata{
						DocID:   "cardiology_ESC_Chest_Pain_20240101_120000",
						Title:   "ESC Chest Pain",
						Section: "Rule-out algorithms",
						Page:    12,
					},
					RelevanceScore: 10,
				},
			},
			stats: domain.CollectionStats{
				TotalChunks: 42,
				UniqueDocs:  2,
				ByUser: map[string]domain.UserStats{
					"alice": {Chunks: 30, Documents: 1},
					"bob":   {Chunks: 12, Documents: 1},
				},
			},
			docs: []domain.DocumentSummary{
				{
					DocID:      "general_Asthma_20240102_080000",
					Title:      "Asthma Pocket Guide",
					Type:       "guideline",
					Specialty:  "general",
					Year:       2024,
					UploadDate: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
					UploadedBy: "alice",
					Chunks:     30,
				},
			},
			deleted: true,
		},
		ingest: &mockIngestService{},
		settings: &mockSettingsService{
			settings: domain.DefaultSettings(),
		},
	}

	SetServices(&Services{
		Retrieval: ts.retrieval,
		Ingest:    ts.ingest,
		Settings:  ts.settings,
	})
	return ts, func() { SetServices(nil) }
}

// execute runs the root command with fresh flags and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	searchFilters = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Value.Type() != "stringArray" {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
