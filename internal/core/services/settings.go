package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
	"github.com/custodia-labs/docia/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir          = "data_dir"
	keyCollection       = "collection"
	keyStoreBackend     = "store.backend"
	keyWeaviateHost     = "weaviate.host"
	keyWeaviateScheme   = "weaviate.scheme"
	keyWeaviateAPIKey   = "weaviate.api_key"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedDims        = "embedding.dimensions"
	keyEmbedConcurrency = "embedding.max_concurrency"
	keyEmbedRate        = "embedding.requests_per_second"
	keyChunkSize        = "chunker.chunk_size"
	keyBatchSize        = "ingest.batch_size"
	keyRollback         = "ingest.rollback_on_failure"
	keySearchLimit      = "search.default_limit"
)

// Environment variables holding secrets. They take precedence over the file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvWeaviateAPIKey = "WEAVIATE_API_KEY"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindBool
)

// settingKeys maps every recognised key to its value type, in display order.
var settingKeys = []struct {
	key  string
	kind keyKind
}{
	{keyDataDir, kindString},
	{keyCollection, kindString},
	{keyStoreBackend, kindString},
	{keyWeaviateHost, kindString},
	{keyWeaviateScheme, kindString},
	{keyWeaviateAPIKey, kindString},
	{keyEmbedProvider, kindString},
	{keyEmbedModel, kindString},
	{keyEmbedBaseURL, kindString},
	{keyEmbedAPIKey, kindString},
	{keyEmbedDims, kindInt},
	{keyEmbedConcurrency, kindInt},
	{keyEmbedRate, kindFloat},
	{keyChunkSize, kindInt},
	{keyBatchSize, kindInt},
	{keyRollback, kindBool},
	{keySearchLimit, kindInt},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service. aiValidator may be nil.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := domain.Settings{
		DataDir: s.getString(keyDataDir, d.DataDir),
		Embedding: domain.EmbeddingSettings{
			Provider:          domain.AIProvider(s.getString(keyEmbedProvider, d.Embedding.Provider.String())),
			Model:             s.configStore.GetString(keyEmbedModel), // Empty selects the adapter default
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.getInt(keyEmbedDims, d.Embedding.Dimensions),
			MaxConcurrency:    s.getInt(keyEmbedConcurrency, d.Embedding.MaxConcurrency),
			RequestsPerSecond: s.getFloat(keyEmbedRate, d.Embedding.RequestsPerSecond),
		},
		Store: domain.StoreSettings{
			Backend:        domain.StoreBackend(s.getString(keyStoreBackend, d.Store.Backend.String())),
			Collection:     s.getString(keyCollection, d.Store.Collection),
			WeaviateHost:   s.configStore.GetString(keyWeaviateHost),
			WeaviateScheme: s.getString(keyWeaviateScheme, d.Store.WeaviateScheme),
			WeaviateAPIKey: s.configStore.GetString(keyWeaviateAPIKey),
		},
		Ingest: domain.IngestSettings{
			BatchSize:         s.getInt(keyBatchSize, d.Ingest.BatchSize),
			ChunkSize:         s.getInt(keyChunkSize, d.Ingest.ChunkSize),
			RollbackOnFailure: s.getBool(keyRollback, d.Ingest.RollbackOnFailure),
		},
		SearchLimit: s.getInt(keySearchLimit, d.SearchLimit),
	}

	if key := s.getenv(EnvOpenAIAPIKey); key != "" && settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = key
	}
	if key := s.getenv(EnvWeaviateAPIKey); key != "" {
		settings.Store.WeaviateAPIKey = key
	}

	return settings, nil
}

// Keys lists every recognised configuration key.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingKeys))
	for i, k := range settingKeys {
		keys[i] = k.key
	}
	return keys
}

// Set parses value according to the key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := lookupKind(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s expects a non-negative integer, got %q", domain.ErrInvalidInput, key, value)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s expects a non-negative number, got %q", domain.ErrInvalidInput, key, value)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s expects true or false, got %q", domain.ErrInvalidInput, key, value)
		}
		parsed = b
	default:
		parsed = value
	}

	switch key {
	case keyStoreBackend:
		if !domain.StoreBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, value)
		}
	case keyEmbedProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, value)
		}
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" && s.getenv(EnvOpenAIAPIKey) == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if err := s.configStore.Set(keyEmbedProvider, provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}

	// Cloud providers don't need a custom base URL
	if !provider.IsLocal() {
		if err := s.configStore.Set(keyEmbedBaseURL, ""); err != nil {
			return fmt.Errorf("save embedding base_url: %w", err)
		}
	}
	if apiKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, apiKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	return nil
}

// Validate checks if current settings are consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: %s requires an API key (set %s)",
			domain.ErrInvalidInput, settings.Embedding.Provider, EnvOpenAIAPIKey)
	}
	if !settings.Store.Backend.IsValid() {
		return fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, settings.Store.Backend)
	}
	if settings.Store.Backend == domain.StoreBackendWeaviate && settings.Store.WeaviateHost == "" {
		return fmt.Errorf("%w: %s is required for the weaviate backend", domain.ErrInvalidInput, keyWeaviateHost)
	}
	if settings.Store.Collection == "" {
		return fmt.Errorf("%w: %s must not be empty", domain.ErrInvalidInput, keyCollection)
	}
	for key, v := range map[string]int{
		keyBatchSize:   settings.Ingest.BatchSize,
		keyChunkSize:   settings.Ingest.ChunkSize,
		keySearchLimit: settings.SearchLimit,
	} {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", domain.ErrInvalidInput, key, v)
		}
	}
	return nil
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, settings.Embedding)
}

func lookupKind(key string) (keyKind, bool) {
	for _, k := range settingKeys {
		if k.key == key {
			return k.kind, true
		}
	}
	return kindString, false
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetInt(key)
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetFloat(key)
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetBool(key)
	}
	return defaultVal
}
