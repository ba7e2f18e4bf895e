package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docia/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so an assistant can search the
collection and manage documents.

By default, the server communicates over stdio using JSON-RPC.

Use --http to serve streamable HTTP instead; Prometheus metrics are then
exposed at /metrics on the same address.

Examples:
  # Stdio mode (default)
  docia mcp

  # HTTP mode
  docia mcp --http :8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "docia": {
        "command": "/path/to/docia",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,

	Annotations: map[string]string{annotationLongRunning: "true"},
}

func init() {
	mcpCmd.Flags().String("http", "", "HTTP listen address (empty = use stdio)")
	mcpCmd.Flags().Bool("no-ingest", false, "do not expose the ingest_document tool")
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("http")
	if err != nil {
		return fmt.Errorf("getting http flag: %w", err)
	}
	noIngest, err := cmd.Flags().GetBool("no-ingest")
	if err != nil {
		return fmt.Errorf("getting no-ingest flag: %w", err)
	}

	ports := &mcp.Ports{
		Retrieval: retrievalService,
	}
	if !noIngest {
		ports.Ingest = ingestService
	}

	var opts []mcp.Option
	if metricsHandler != nil {
		opts = append(opts, mcp.WithMetricsHandler(metricsHandler))
	}

	server, err := mcp.NewServer(ports, opts...)
	if err != nil {
		return err
	}

	if addr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
