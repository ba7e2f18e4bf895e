// Package storage opens the configured vector store backend.
package storage

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docia/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docia/internal/adapters/driven/storage/weaviate"
	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
	"github.com/custodia-labs/docia/internal/logger"
)

// Open returns the vector store for settings.Collection on the configured
// backend. dataDir is only used by the sqlite backend.
func Open(ctx context.Context, settings domain.StoreSettings, dataDir string, dimensions int) (driven.VectorStore, error) {
	collection := settings.Collection
	if collection == "" {
		collection = domain.DefaultCollection
	}
	logger.Debug("storage: opening %s collection %q (%d dims)", settings.Backend, collection, dimensions)

	switch settings.Backend {
	case domain.StoreBackendSQLite, "":
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		vs, err := store.Collection(ctx, collection, dimensions)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		logger.Debug("storage: sqlite database %s", store.Path())
		return vs, nil

	case domain.StoreBackendWeaviate:
		return weaviate.New(ctx, weaviate.Config{
			Host:   settings.WeaviateHost,
			Scheme: settings.WeaviateScheme,
			APIKey: settings.WeaviateAPIKey,
		}, collection, dimensions)

	case domain.StoreBackendMemory:
		return memory.NewVectorStore(dimensions), nil

	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}
