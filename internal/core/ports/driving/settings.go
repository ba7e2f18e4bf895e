package driving

import (
	"context"

	"github.com/custodia-labs/docia/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings: defaults, then the config file,
	// then environment secrets.
	Get() (domain.Settings, error)

	// Set parses and persists one configuration key.
	Set(key, value string) error

	// Keys lists every recognised configuration key in display order.
	Keys() []string

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks the effective settings for consistency.
	Validate() error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig(ctx context.Context) error
}
