package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docia/internal/core/domain"
)

var settingsOnly = map[string]string{annotationSettingsOnly: "true"}

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Manage configuration",
	Long:        `View and change the settings stored in ~/.docia/config.toml.`,
	Annotations: settingsOnly,
	RunE:        runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current settings",
	Annotations: settingsOnly,
	RunE:        runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:         "set [key] [value]",
	Short:       "Set a configuration value",
	Long:        `Set one configuration key. Run 'docia config keys' for the list of keys.`,
	Args:        cobra.ExactArgs(2),
	Annotations: settingsOnly,
	RunE:        runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:         "keys",
	Short:       "List configuration keys",
	Args:        cobra.NoArgs,
	Annotations: settingsOnly,
	RunE:        runConfigKeys,
}

var configEmbeddingCmd = &cobra.Command{
	Use:         "embedding",
	Short:       "Configure embedding provider",
	Long:        `Choose the embedding provider and model. Changing the model requires re-ingesting every document.`,
	Annotations: settingsOnly,
	RunE:        runConfigEmbedding,
}

var configCheckCmd = &cobra.Command{
	Use:         "check",
	Short:       "Validate settings and ping the embedding provider",
	Annotations: settingsOnly,
	RunE:        runConfigCheck,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configEmbeddingCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Backend: %s\n", settings.Store.Backend)
	cmd.Printf("  Collection: %s\n", settings.Store.Collection)
	if settings.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.DataDir)
	}
	if settings.Store.Backend == domain.StoreBackendWeaviate {
		cmd.Printf("  Weaviate: %s://%s\n", settings.Store.WeaviateScheme, settings.Store.WeaviateHost)
		if settings.Store.WeaviateAPIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Store.WeaviateAPIKey))
		}
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	model := settings.Embedding.Model
	if model == "" {
		model = "(provider default)"
	}
	cmd.Printf("  Model: %s\n", model)
	if settings.Embedding.Provider.IsLocal() && settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if settings.Embedding.MaxConcurrency > 0 {
		cmd.Printf("  Max concurrency: %d\n", settings.Embedding.MaxConcurrency)
	}
	if settings.Embedding.RequestsPerSecond > 0 {
		cmd.Printf("  Requests/second: %g\n", settings.Embedding.RequestsPerSecond)
	}
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Chunk size: %d tokens\n", settings.Ingest.ChunkSize)
	cmd.Printf("  Batch size: %d records\n", settings.Ingest.BatchSize)
	cmd.Printf("  Roll back on failure: %t\n", settings.Ingest.RollbackOnFailure)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Default limit: %d\n", settings.SearchLimit)
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docia config embedding' or 'docia config set' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return err
	}
	cmd.Printf("%s updated.\n", key)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	if err := settingsService.Validate(); err != nil {
		return err
	}
	cmd.Print("Validating embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")
	return nil
}

func runConfigEmbedding(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

// embeddingProviders lists the providers offered by the setup prompt.
var embeddingProviders = []struct {
	provider domain.AIProvider
	model    string
}{
	{domain.AIProviderOllama, "nomic-embed-text"},
	{domain.AIProviderOpenAI, "text-embedding-3-small"},
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	for i, p := range embeddingProviders {
		cmd.Printf("  %d. %s\n", i+1, p.provider.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(embeddingProviders), 1)
	selected := embeddingProviders[idx-1]

	// Get model
	cmd.Printf("Enter model name [%s]: ", selected.model)
	model := readLine(reader)
	if model == "" {
		model = selected.model
	}

	// Get API key if needed
	var apiKey string
	if selected.provider.RequiresAPIKey() && os.Getenv("OPENAI_API_KEY") == "" {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selected.provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", selected.provider.Description(), model)
	cmd.Println("Documents embedded with a different model must be re-ingested.")
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal, and falls back
// to the line reader otherwise.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
