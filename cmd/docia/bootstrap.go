package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docia/internal/adapters/driven/ai"
	"github.com/custodia-labs/docia/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docia/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/docia/internal/adapters/driven/storage"
	"github.com/custodia-labs/docia/internal/adapters/driven/tokenizer/estimate"
	"github.com/custodia-labs/docia/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/custodia-labs/docia/internal/adapters/driving/cli"
	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
	"github.com/custodia-labs/docia/internal/core/services"
	"github.com/custodia-labs/docia/internal/extractors"
	"github.com/custodia-labs/docia/internal/extractors/pdf"
	"github.com/custodia-labs/docia/internal/extractors/pptx"
	"github.com/custodia-labs/docia/internal/logger"
	"github.com/custodia-labs/docia/internal/postprocessors"
)

// bootstrap builds the process-wide services. The embedding service and the
// store are created once here and shared by every command.
func bootstrap(ctx context.Context, opts cli.GlobalOptions) (*cli.Services, error) {
	logger.Section("Bootstrap")

	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("opening configuration: %w", err)
	}
	logger.Debug("config: %s", configStore.Path())

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	if opts.SettingsOnly {
		return &cli.Services{Settings: settingsService}, nil
	}

	if err := settingsService.Validate(); err != nil {
		return nil, fmt.Errorf("%w (run 'docia config show')", err)
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}
	if opts.DataDir != "" {
		settings.DataDir = opts.DataDir
	}

	create := ai.CreateEmbeddingService
	if opts.PingEmbedding {
		create = func(es domain.EmbeddingSettings) (driven.EmbeddingService, error) {
			return ai.CreateAndValidateEmbeddingService(ctx, es)
		}
	}
	embedder, err := create(settings.Embedding)
	if err != nil {
		return nil, err
	}
	logger.Debug("embedding: %s (%d dims)", embedder.ModelName(), embedder.Dimensions())

	store, err := storage.Open(ctx, settings.Store, settings.DataDir, embedder.Dimensions())
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	tok := newTokenizer()
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	chunker, err := registry.Build(postprocessors.ChunkerName, map[string]any{"chunk_size": settings.Ingest.ChunkSize}, tok)
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		return nil, err
	}

	observer := prometheus.New()
	retrieval := services.NewDociaRAG(embedder, store,
		services.WithBatchSize(settings.Ingest.BatchSize),
		services.WithRollback(settings.Ingest.RollbackOnFailure),
		services.WithObserver(observer),
	)
	ingest := services.NewIngestService(
		extractors.NewRegistry(pdf.New(chunker), pptx.New(tok)),
		retrieval,
	)

	return &cli.Services{
		Retrieval:      retrieval,
		Ingest:         ingest,
		Settings:       settingsService,
		MetricsHandler: observer.Handler(),
		Close: func() error {
			return errors.Join(store.Close(), embedder.Close())
		},
	}, nil
}

// newTokenizer loads cl100k_base, falling back to the character estimate.
func newTokenizer() driven.Tokenizer {
	tok, err := tiktoken.New(tiktoken.DefaultEncoding)
	if err != nil {
		logger.Warn("tokenizer: %v; using character estimate", err)
		return estimate.New()
	}
	return tok
}
