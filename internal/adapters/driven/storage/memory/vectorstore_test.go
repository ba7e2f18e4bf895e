package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docia/internal/core/domain"
)

func record(docID string, i int, user string, embedding ...float32) domain.Record {
	return domain.Record{
		ID:        fmt.Sprintf("%s_chunk_%04d", docID, i),
		Embedding: embedding,
		Text:      fmt.Sprintf("text %d", i),
		Metadata: domain.RecordMetadata{
			DocID:      docID,
			Year:       2023,
			Page:       i + 1,
			UploadedBy: user,
		},
	}
}

func TestNewVectorStore(t *testing.T) {
	store := NewVectorStore(3)
	require.NotNil(t, store)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, store.Close())
}

func TestVectorStore_UpsertAndQuery(t *testing.T) {
	store := NewVectorStore(2)
	ctx := context.Background()

	require.NoError(t, store.UpsertBatch(ctx, []domain.Record{
		record("a", 0, "alice", 1, 0),
		record("a", 1, "alice", 0, 1),
		record("b", 0, "bob", 1, 1),
	}))

	got, err := store.Query(ctx, []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a_chunk_0000", got[0].ID)
	assert.Equal(t, "b_chunk_0000", got[1].ID)
	assert.InDelta(t, 0, got[0].Distance, 1e-9)
}

func TestVectorStore_QueryFilter(t *testing.T) {
	store := NewVectorStore(2)
	ctx := context.Background()

	require.NoError(t, store.UpsertBatch(ctx, []domain.Record{
		record("a", 0, "alice", 1, 0),
		record("b", 0, "bob", 1, 0),
	}))

	got, err := store.Query(ctx, []float32{1, 0}, 5, domain.Filter{domain.FieldUploadedBy: "bob", domain.FieldYear: "2023"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].Metadata.UploadedBy)

	_, err = store.Query(ctx, []float32{1, 0}, 5, domain.Filter{"colour": "red"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorStore_QueryEmpty(t *testing.T) {
	got, err := NewVectorStore(2).Query(context.Background(), []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestVectorStore_DimensionMismatch(t *testing.T) {
	store := NewVectorStore(0)
	ctx := context.Background()

	require.NoError(t, store.UpsertBatch(ctx, []domain.Record{record("a", 0, "alice", 1, 0)}))

	err := store.UpsertBatch(ctx, []domain.Record{record("a", 1, "alice", 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = store.Query(ctx, []float32{1, 0, 0}, 1, nil)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorStore_UpsertCopiesEmbedding(t *testing.T) {
	store := NewVectorStore(2)
	ctx := context.Background()

	rec := record("a", 0, "alice", 1, 0)
	require.NoError(t, store.UpsertBatch(ctx, []domain.Record{rec}))
	rec.Embedding[0] = -1

	got, err := store.Query(ctx, []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0, got[0].Distance, 1e-9)
}

func TestVectorStore_GetAllMetadataAndDelete(t *testing.T) {
	store := NewVectorStore(2)
	ctx := context.Background()

	require.NoError(t, store.UpsertBatch(ctx, []domain.Record{
		record("a", 1, "alice", 1, 0),
		record("a", 0, "alice", 1, 0),
		record("b", 0, "bob", 1, 0),
	}))

	metas, err := store.GetAllMetadata(ctx, domain.FilterBy(domain.FieldDocID, "a"))
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, 1, metas[0].Page)
	assert.Equal(t, 2, metas[1].Page)

	n, err := store.DeleteBy(ctx, domain.FilterBy(domain.FieldDocID, "a"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.DeleteBy(ctx, domain.FilterBy(domain.FieldDocID, "missing"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVectorStore_FailUpsertWhen(t *testing.T) {
	store := NewVectorStore(2)
	ctx := context.Background()
	boom := errors.New("disk full")

	store.FailUpsertWhen(func(batch []domain.Record) error {
		if batch[0].ID == "a_chunk_0001" {
			return boom
		}
		return nil
	})

	require.NoError(t, store.UpsertBatch(ctx, []domain.Record{record("a", 0, "alice", 1, 0)}))
	assert.ErrorIs(t, store.UpsertBatch(ctx, []domain.Record{record("a", 1, "alice", 1, 0)}), boom)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVectorStore_Concurrency(t *testing.T) {
	store := NewVectorStore(2)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.UpsertBatch(ctx, []domain.Record{record("doc", n, "alice", 1, float32(n))})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.Query(ctx, []float32{1, 0}, 5, nil)
		}()
	}
	wg.Wait()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, count)
}
