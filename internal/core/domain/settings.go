package domain

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// StoreBackend identifies a vector store implementation.
type StoreBackend string

// Available store backends.
const (
	// StoreBackendSQLite persists the collection in a local SQLite file.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendWeaviate uses a Weaviate server.
	StoreBackendWeaviate StoreBackend = "weaviate"

	// StoreBackendMemory keeps the collection in process memory.
	StoreBackendMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendSQLite, StoreBackendWeaviate, StoreBackendMemory:
		return true
	default:
		return false
	}
}

// IsPersistent reports whether the collection survives a restart.
func (b StoreBackend) IsPersistent() bool {
	return b == StoreBackendSQLite || b == StoreBackendWeaviate
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// DefaultCollection is the name of the collection holding medical documents.
const DefaultCollection = "docia_medical_docs"

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the expected vector length. Zero uses the model default.
	Dimensions int

	// MaxConcurrency bounds in-flight embedding calls. Zero means unbounded.
	MaxConcurrency int

	// RequestsPerSecond bounds the rate of provider HTTP requests. A batch
	// larger than the provider's per-request limit counts once per request.
	// Zero means unlimited.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// StoreSettings holds vector store configuration.
type StoreSettings struct {
	Backend    StoreBackend
	Collection string

	// WeaviateHost, WeaviateScheme and WeaviateAPIKey apply to the weaviate backend.
	WeaviateHost   string
	WeaviateScheme string
	WeaviateAPIKey string
}

// IngestSettings holds write-path configuration.
type IngestSettings struct {
	// BatchSize is the number of records written per store call.
	BatchSize int

	// ChunkSize is the token budget per chunk.
	ChunkSize int

	// RollbackOnFailure deletes already committed batches when a later
	// batch fails.
	RollbackOnFailure bool
}

// Settings aggregates all runtime configuration.
type Settings struct {
	DataDir   string
	Embedding EmbeddingSettings
	Store     StoreSettings
	Ingest    IngestSettings

	// SearchLimit is the default number of search results.
	SearchLimit int
}

// DefaultSettings returns the settings used when no configuration is present.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
		},
		Store: StoreSettings{
			Backend:        StoreBackendSQLite,
			Collection:     DefaultCollection,
			WeaviateScheme: "http",
		},
		Ingest: IngestSettings{
			BatchSize:         100,
			ChunkSize:         600,
			RollbackOnFailure: true,
		},
		SearchLimit: DefaultSearchLimit,
	}
}
