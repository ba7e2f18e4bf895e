package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docia/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docia/internal/core/domain"
)

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(ctx, domain.StoreSettings{Backend: domain.StoreBackendSQLite}, dir, 3)
	require.NoError(t, err)
	vs, ok := store.(*sqlite.VectorStore)
	require.True(t, ok)
	assert.Equal(t, domain.DefaultCollection, vs.Name())

	require.NoError(t, store.UpsertBatch(ctx, []domain.Record{{
		ID:        "d_chunk_0000",
		Embedding: []float32{1, 0, 0},
		Text:      "t",
		Metadata:  domain.RecordMetadata{DocID: "d", UploadDate: time.Now().UTC()},
	}}))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, domain.StoreSettings{Backend: domain.StoreBackendSQLite}, dir, 3)
	require.NoError(t, err)
	defer reopened.Close()
	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_SQLiteDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(ctx, domain.StoreSettings{Collection: "c"}, dir, 3)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = Open(ctx, domain.StoreSettings{Collection: "c"}, dir, 768)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestOpen_Memory(t *testing.T) {
	store, err := Open(context.Background(), domain.StoreSettings{Backend: domain.StoreBackendMemory}, "", 3)
	require.NoError(t, err)
	_, ok := store.(*memory.VectorStore)
	assert.True(t, ok)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), domain.StoreSettings{Backend: "chroma"}, "", 3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
