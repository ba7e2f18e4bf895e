package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docia/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
type VectorStore struct {
	mu         sync.RWMutex
	records    map[string]domain.Record
	dimensions int

	// failOn, when set, is consulted before every UpsertBatch.
	failOn func(batch []domain.Record) error
}

// NewVectorStore creates a new in-memory vector store. dimensions fixes the
// embedding length; zero adopts the length of the first record written.
func NewVectorStore(dimensions int) *VectorStore {
	return &VectorStore{
		records:    make(map[string]domain.Record),
		dimensions: dimensions,
	}
}

// FailUpsertWhen installs a hook that can reject batches. Used by tests to
// simulate a store failing part way through an ingestion.
func (s *VectorStore) FailUpsertWhen(fn func(batch []domain.Record) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = fn
}

// UpsertBatch stores records, replacing any with the same ID.
func (s *VectorStore) UpsertBatch(_ context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failOn != nil {
		if err := s.failOn(records); err != nil {
			return err
		}
	}

	dims := s.dimensions
	if dims == 0 {
		dims = len(records[0].Embedding)
	}
	for _, r := range records {
		if len(r.Embedding) != dims || dims == 0 {
			return fmt.Errorf("%w: record %s has %d dimensions, collection has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Embedding), dims)
		}
	}
	s.dimensions = dims

	for _, r := range records {
		r.Embedding = append([]float32(nil), r.Embedding...)
		s.records[r.ID] = r
	}
	return nil
}

// Query returns up to k records matching the filter, nearest first.
func (s *VectorStore) Query(
	_ context.Context,
	embedding []float32,
	k int,
	filter domain.Filter,
) ([]domain.ScoredRecord, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dimensions > 0 && len(embedding) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			domain.ErrDimensionMismatch, len(embedding), s.dimensions)
	}

	ranker := similarity.NewRanker(k)
	for _, r := range s.records {
		if !filter.Matches(r.Metadata) {
			continue
		}
		ranker.Push(domain.ScoredRecord{
			ID:       r.ID,
			Text:     r.Text,
			Distance: similarity.CosineDistance(embedding, r.Embedding),
			Metadata: r.Metadata,
		})
	}
	return ranker.Results(), nil
}

// GetAllMetadata returns the metadata of every matching record, in record
// ID order.
func (s *VectorStore) GetAllMetadata(_ context.Context, filter domain.Filter) ([]domain.RecordMetadata, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.matchingIDs(filter)
	out := make([]domain.RecordMetadata, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id].Metadata)
	}
	return out, nil
}

// DeleteBy removes every matching record.
func (s *VectorStore) DeleteBy(_ context.Context, filter domain.Filter) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.matchingIDs(filter)
	for _, id := range ids {
		delete(s.records, id)
	}
	return len(ids), nil
}

// Count returns the number of records.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close is a no-op for the memory store.
func (s *VectorStore) Close() error {
	return nil
}

// matchingIDs returns sorted IDs of records matching the filter.
// Callers must hold the lock.
func (s *VectorStore) matchingIDs(filter domain.Filter) []string {
	var ids []string
	for id, r := range s.records {
		if filter.Matches(r.Metadata) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
