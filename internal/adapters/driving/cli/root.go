// Package cli provides the cobra command tree for the docia binary.
package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docia/internal/core/ports/driving"
	"github.com/custodia-labs/docia/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services injected by the bootstrap in cmd/docia.
var (
	retrievalService driving.RetrievalService
	ingestService    driving.IngestService
	settingsService  driving.SettingsService
	metricsHandler   http.Handler
	closeServices    func() error
)

// Global flags.
var (
	verboseFlag bool
	configDir   string
	dataDir     string
)

// annotationSettingsOnly marks commands that need settings but not the
// embedding service or the vector store.
const annotationSettingsOnly = "docia/settings-only"

// annotationNoBootstrap marks commands that need no services at all.
const annotationNoBootstrap = "docia/no-bootstrap"

// annotationLongRunning marks servers and watchers, which check that the
// embedding provider answers before they start.
const annotationLongRunning = "docia/long-running"

// GlobalOptions are the root flags handed to the bootstrapper.
type GlobalOptions struct {
	ConfigDir string
	DataDir   string
	Verbose   bool

	// SettingsOnly asks for the settings service alone.
	SettingsOnly bool

	// PingEmbedding asks the bootstrapper to fail fast when the embedding
	// provider is unreachable.
	PingEmbedding bool
}

// Services is the set of driving ports the commands run against.
type Services struct {
	Retrieval driving.RetrievalService
	Ingest    driving.IngestService
	Settings  driving.SettingsService

	// MetricsHandler is served at /metrics by `docia mcp --http`. May be nil.
	MetricsHandler http.Handler

	// Close releases the embedding service and store. May be nil.
	Close func() error
}

// Bootstrapper builds the services for a command invocation.
type Bootstrapper func(ctx context.Context, opts GlobalOptions) (*Services, error)

var bootstrap Bootstrapper

var rootCmd = &cobra.Command{
	Use:   "docia",
	Short: "Medical document retrieval",
	Long: `Docia indexes medical PDFs and slide decks into a local vector collection
and retrieves the passages most relevant to a clinical question.`,
	SilenceUsage:      true,
	PersistentPreRunE: runBootstrap,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "configuration directory (default ~/.docia)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the collection (overrides data_dir)")
}

// SetVersion sets the version printed by `docia version`.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(b Bootstrapper) {
	bootstrap = b
}

// SetServices injects services directly. Commands run with a nil port
// report it as not configured.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	retrievalService = s.Retrieval
	ingestService = s.Ingest
	settingsService = s.Settings
	metricsHandler = s.MetricsHandler
	closeServices = s.Close
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if cerr := closeServices(); cerr != nil {
			logger.Warn("closing services: %v", cerr)
		}
	}
	return err
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)

	if bootstrap == nil || cmd.Annotations[annotationNoBootstrap] != "" {
		return nil
	}

	opts := GlobalOptions{
		ConfigDir:     configDir,
		DataDir:       dataDir,
		Verbose:       verboseFlag,
		SettingsOnly:  cmd.Annotations[annotationSettingsOnly] != "",
		PingEmbedding: cmd.Annotations[annotationLongRunning] != "",
	}
	services, err := bootstrap(cmd.Context(), opts)
	if err != nil {
		return err
	}
	SetServices(services)
	return nil
}

func requireRetrieval() error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}
	return nil
}
