package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docia/internal/adapters/driven/metrics"
	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
	"github.com/custodia-labs/docia/internal/core/ports/driving"
	"github.com/custodia-labs/docia/internal/logger"
)

// Ensure DociaRAG implements the interface.
var _ driving.RetrievalService = (*DociaRAG)(nil)

const (
	// DefaultBatchSize is the number of records written per store call.
	DefaultBatchSize = 100

	// docIDTitleRunes is how much of the title goes into a doc_id.
	docIDTitleRunes = 30

	docIDTimeLayout = "20060102_150405"
)

// DociaRAG is the retrieval service: it owns the write path from chunks to
// records and the query path from text to ranked results.
type DociaRAG struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
	observer driven.Observer

	batchSize int
	rollback  bool
	now       func() time.Time

	// mu guards reserved, the doc_ids being written by in-flight calls.
	mu       sync.Mutex
	reserved map[string]struct{}
}

// Option configures a DociaRAG.
type Option func(*DociaRAG)

// WithBatchSize sets the number of records per store write.
func WithBatchSize(n int) Option {
	return func(s *DociaRAG) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithRollback controls whether committed batches are deleted when a later
// batch fails.
func WithRollback(enabled bool) Option {
	return func(s *DociaRAG) {
		s.rollback = enabled
	}
}

// WithObserver sets the event observer.
func WithObserver(o driven.Observer) Option {
	return func(s *DociaRAG) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithClock sets the time source used for doc_ids and upload dates.
func WithClock(now func() time.Time) Option {
	return func(s *DociaRAG) {
		if now != nil {
			s.now = now
		}
	}
}

// NewDociaRAG creates the retrieval service. The embedder must be the same
// instance for ingestion and search.
func NewDociaRAG(embedder driven.EmbeddingService, store driven.VectorStore, opts ...Option) *DociaRAG {
	s := &DociaRAG{
		embedder:  embedder,
		store:     store,
		observer:  metrics.Noop{},
		batchSize: DefaultBatchSize,
		rollback:  true,
		now:       time.Now,
		reserved:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateDocID builds the base doc_id for a document ingested at t:
// specialty, the first 30 runes of the title with spaces and slashes
// replaced by underscores, and a second-resolution timestamp.
func GenerateDocID(specialty, title string, t time.Time) string {
	if specialty == "" {
		specialty = domain.DefaultSpecialty
	}
	runes := []rune(title)
	if len(runes) > docIDTitleRunes {
		runes = runes[:docIDTitleRunes]
	}
	safe := strings.NewReplacer(" ", "_", "/", "_").Replace(string(runes))
	return fmt.Sprintf("%s_%s_%s", specialty, safe, t.Format(docIDTimeLayout))
}

// RecordID returns the id of the i-th chunk of a document.
func RecordID(docID string, i int) string {
	return fmt.Sprintf("%s_chunk_%04d", docID, i)
}

// AddDocument embeds the chunks in one batch call and writes one record per
// chunk in fixed-size batches.
func (s *DociaRAG) AddDocument(
	ctx context.Context,
	chunks []domain.ChunkDraft,
	meta domain.DocumentMetadata,
	uploadedBy string,
) (string, error) {
	logger.Section("Add Document")

	if len(chunks) == 0 {
		return "", fmt.Errorf("%w: document %q has no chunks", domain.ErrNothingToIndex, meta.Title)
	}

	now := s.now()
	meta = withDefaults(meta, now)
	if uploadedBy == "" {
		uploadedBy = domain.SystemUploader
	}

	docID, err := s.reserveDocID(ctx, GenerateDocID(meta.Specialty, meta.Title, now))
	if err != nil {
		return "", err
	}
	defer s.release(docID)
	logger.Debug("doc_id %s for %q (%d chunks)", docID, meta.Title, len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("embedding %d chunks: %w", len(texts), err)
	}
	if err := checkEmbeddings(embeddings, len(texts)); err != nil {
		return "", err
	}

	uploadDate := now.UTC().Truncate(time.Microsecond)
	records := make([]domain.Record, len(chunks))
	for i, c := range chunks {
		section := c.Section
		if section == "" {
			section = domain.DefaultSection
		}
		records[i] = domain.Record{
			ID:        RecordID(docID, i),
			Embedding: embeddings[i],
			Text:      c.Text,
			Metadata: domain.RecordMetadata{
				DocID:      docID,
				Title:      meta.Title,
				Type:       meta.Type,
				Specialty:  meta.Specialty,
				Year:       meta.Year,
				Page:       c.Page,
				Section:    section,
				TokenCount: c.TokenCount,
				UploadDate: uploadDate,
				UploadedBy: uploadedBy,
			},
		}
	}

	if err := s.writeBatches(ctx, docID, records); err != nil {
		return "", err
	}

	s.observer.DocumentIngested(len(records))
	logger.Info("Document %q added as %s (%d chunks)", meta.Title, docID, len(records))
	return docID, nil
}

func withDefaults(meta domain.DocumentMetadata, now time.Time) domain.DocumentMetadata {
	if meta.Specialty == "" {
		meta.Specialty = domain.DefaultSpecialty
	}
	if meta.Type == "" {
		meta.Type = domain.DefaultDocumentType
	}
	if meta.Year == 0 {
		meta.Year = now.Year()
	}
	return meta
}

func checkEmbeddings(embeddings [][]float32, want int) error {
	if len(embeddings) != want {
		return fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbeddingUnavailable, len(embeddings), want)
	}
	for i, e := range embeddings {
		if len(e) == 0 || len(e) != len(embeddings[0]) {
			return fmt.Errorf("%w: embedding %d has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, i, len(e), len(embeddings[0]))
		}
	}
	return nil
}

// reserveDocID returns base, or base with a numeric suffix when a document
// with that id already exists or is being written.
func (s *DociaRAG) reserveDocID(ctx context.Context, base string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for n := 1; ; n++ {
		candidate := base
		if n > 1 {
			candidate = fmt.Sprintf("%s_%d", base, n)
		}
		if _, busy := s.reserved[candidate]; busy {
			continue
		}
		existing, err := s.store.GetAllMetadata(ctx, domain.FilterBy(domain.FieldDocID, candidate))
		if err != nil {
			return "", fmt.Errorf("checking doc_id %s: %w", candidate, err)
		}
		if len(existing) > 0 {
			logger.Debug("doc_id %s already exists", candidate)
			continue
		}
		s.reserved[candidate] = struct{}{}
		return candidate, nil
	}
}

func (s *DociaRAG) release(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, docID)
}

// writeBatches upserts records batchSize at a time. On failure the batches
// already committed are logged and, when rollback is enabled, deleted.
func (s *DociaRAG) writeBatches(ctx context.Context, docID string, records []domain.Record) error {
	total := (len(records) + s.batchSize - 1) / s.batchSize

	for start, batch := 0, 1; start < len(records); start, batch = start+s.batchSize, batch+1 {
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}

		err := s.store.UpsertBatch(ctx, records[start:end])
		s.observer.BatchWritten(end-start, err)
		if err == nil {
			logger.Debug("Batch %d/%d committed (%d records)", batch, total, end-start)
			continue
		}

		if start == 0 {
			return fmt.Errorf("writing batch 1/%d of %s: %w", total, docID, err)
		}
		logger.Warn("Batch %d/%d of %s failed; batches 1-%d (%d records) are committed",
			batch, total, docID, batch-1, start)

		rolledBack := false
		if s.rollback {
			// Cleanup must run even when ctx was what failed the write.
			n, delErr := s.store.DeleteBy(context.WithoutCancel(ctx), domain.FilterBy(domain.FieldDocID, docID))
			if delErr != nil {
				logger.Warn("Rollback of %s failed: %v", docID, delErr)
			} else {
				rolledBack = true
				logger.Info("Rolled back %s (%d records deleted)", docID, n)
			}
		}
		return fmt.Errorf("%w: %s: batch %d/%d failed after %d records committed (rolled back: %t): %w",
			domain.ErrPartialIngestion, docID, batch, total, start, rolledBack, err)
	}
	return nil
}

// Search embeds the query and returns the nearest chunks. Every failure is
// logged and observed, and yields an empty list.
func (s *DociaRAG) Search(ctx context.Context, query string, opts domain.SearchOptions) []domain.SearchResult {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)
	start := time.Now()
	results := []domain.SearchResult{}

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return results
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	filter, ok := scopeFilter(opts)
	if err := filter.Validate(); err != nil {
		logger.Warn("Search: malformed filter %s: %v", opts.Filters, err)
		s.observer.SearchFailed(driven.StageFilter)
		return results
	}
	if !ok {
		logger.Debug("Filter %s excludes user %q, returning no results", opts.Filters, opts.UserID)
		s.observer.SearchCompleted(time.Since(start), 0)
		return results
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Search: embedding failed: %v", err)
		s.observer.SearchFailed(driven.StageEmbed)
		return results
	}

	hits, err := s.store.Query(ctx, embedding, limit, filter)
	if err != nil {
		logger.Warn("Search: query failed: %v", err)
		s.observer.SearchFailed(driven.StageQuery)
		return results
	}

	for _, h := range hits {
		results = append(results, domain.SearchResult{
			ChunkID:        h.ID,
			Text:           h.Text,
			Distance:       h.Distance,
			Metadata:       h.Metadata,
			RelevanceScore: domain.RelevanceScore(h.Distance),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	s.observer.SearchCompleted(time.Since(start), len(results))
	logger.Debug("Search returned %d results in %s", len(results), time.Since(start))
	return results
}

// scopeFilter adds the user constraint to the caller's filters. The boolean
// is false when the caller already pinned uploaded_by to someone else.
func scopeFilter(opts domain.SearchOptions) (domain.Filter, bool) {
	if opts.UserID == "" {
		return opts.Filters, true
	}
	return opts.Filters.With(domain.FieldUploadedBy, opts.UserID)
}

// GetCollectionStats counts chunks and distinct documents, per user when
// userID is empty. An empty collection is answered from Count alone.
func (s *DociaRAG) GetCollectionStats(ctx context.Context, userID string) (domain.CollectionStats, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return domain.CollectionStats{}, fmt.Errorf("counting records: %w", err)
	}
	if total == 0 {
		stats := domain.CollectionStats{}
		if userID == "" {
			stats.ByUser = map[string]domain.UserStats{}
		}
		return stats, nil
	}

	var filter domain.Filter
	if userID != "" {
		filter = domain.FilterBy(domain.FieldUploadedBy, userID)
	}

	metas, err := s.store.GetAllMetadata(ctx, filter)
	if err != nil {
		return domain.CollectionStats{}, fmt.Errorf("reading collection metadata: %w", err)
	}

	docs := make(map[string]struct{})
	for _, m := range metas {
		docs[m.DocID] = struct{}{}
	}
	stats := domain.CollectionStats{
		TotalChunks: len(metas),
		UniqueDocs:  len(docs),
	}
	if userID != "" {
		return stats, nil
	}

	stats.ByUser = make(map[string]domain.UserStats)
	userDocs := make(map[string]map[string]struct{})
	for _, m := range metas {
		user := m.UploadedBy
		if user == "" {
			user = domain.SystemUploader
		}
		if userDocs[user] == nil {
			userDocs[user] = make(map[string]struct{})
		}
		userDocs[user][m.DocID] = struct{}{}

		us := stats.ByUser[user]
		us.Chunks++
		us.Documents = len(userDocs[user])
		stats.ByUser[user] = us
	}
	return stats, nil
}

// GetUserDocuments returns one summary per document uploaded by userID, in
// first-seen order. The first record seen for a doc_id supplies its metadata.
func (s *DociaRAG) GetUserDocuments(ctx context.Context, userID string) ([]domain.DocumentSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	metas, err := s.store.GetAllMetadata(ctx, domain.FilterBy(domain.FieldUploadedBy, userID))
	if err != nil {
		return nil, fmt.Errorf("reading metadata for %s: %w", userID, err)
	}

	docs := []domain.DocumentSummary{}
	index := make(map[string]int)
	for _, m := range metas {
		if i, seen := index[m.DocID]; seen {
			docs[i].Chunks++
			continue
		}
		index[m.DocID] = len(docs)
		docs = append(docs, domain.DocumentSummary{
			DocID:      m.DocID,
			Title:      m.Title,
			Type:       m.Type,
			Specialty:  m.Specialty,
			Year:       m.Year,
			UploadDate: m.UploadDate,
			UploadedBy: m.UploadedBy,
			Chunks:     1,
		})
	}
	return docs, nil
}

// DeleteDocument removes every record of the document.
func (s *DociaRAG) DeleteDocument(ctx context.Context, docID string) (bool, error) {
	if strings.TrimSpace(docID) == "" {
		return false, fmt.Errorf("%w: doc_id is required", domain.ErrInvalidInput)
	}

	n, err := s.store.DeleteBy(ctx, domain.FilterBy(domain.FieldDocID, docID))
	if err != nil {
		return false, fmt.Errorf("deleting %s: %w", docID, err)
	}
	if n == 0 {
		logger.Info("Document %s not found", docID)
		return false, nil
	}
	logger.Info("Document %s deleted (%d chunks)", docID, n)
	return true, nil
}
