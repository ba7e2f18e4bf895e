// Command docia indexes medical documents and answers retrieval queries
// over them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docia/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Secrets may live in a .env file next to the working directory.
	_ = godotenv.Load() //nolint:errcheck // the file is optional

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
