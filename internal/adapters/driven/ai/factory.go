// Package ai provides factory functions for creating embedding service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docia/internal/adapters/driven/embedding/limited"
	ollamaembed "github.com/custodia-labs/docia/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docia/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// ollamaDimensions lists the vector sizes of common Ollama embedding models.
var ollamaDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
	"bge-m3":            1024,
}

// CreateEmbeddingService creates the embedding service described by settings,
// wrapped with the configured concurrency and rate limits.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrInvalidInput, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s requires an API key (set OPENAI_API_KEY)",
			domain.ErrInvalidInput, settings.Provider.Description())
	}

	var (
		svc         driven.EmbeddingService
		requestSize int
		err         error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = createOllamaEmbedding(settings)
		requestSize = ollamaembed.MaxBatch
	case domain.AIProviderOpenAI:
		svc, err = createOpenAIEmbedding(settings)
		requestSize = openaiembed.MaxBatch
	}
	if err != nil {
		return nil, err
	}

	return limited.Wrap(svc, limited.Config{
		MaxConcurrency:    settings.MaxConcurrency,
		RequestsPerSecond: settings.RequestsPerSecond,
		RequestSize:       requestSize,
	}), nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(ctx context.Context, settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	if err := ping(ctx, svc); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w (model %s). Check 'docia config show'", err, svc.ModelName())
	}
	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(ctx context.Context, settings domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()
	return ping(ctx, svc)
}

func ping(ctx context.Context, svc driven.EmbeddingService) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings domain.EmbeddingSettings) driven.EmbeddingService {
	model := settings.Model
	if model == "" {
		model = ollamaembed.DefaultModel
	}
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = ollamaDimensions[model]
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
}
