package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docia/internal/adapters/driving/watch"
)

var (
	watchFlags    documentFlags
	watchExisting bool
	watchSettle   time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Index documents as they appear in a directory",
	Long: `Watches a directory and indexes every new or rewritten .pdf or .pptx file
once it has stopped changing. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,

	Annotations: map[string]string{annotationLongRunning: "true"},
}

func init() {
	watchFlags.register(watchCmd, false)
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also index files already in the directory")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watch.DefaultSettle, "quiet period before a changed file is indexed")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	overrides, err := watchFlags.overrides()
	if err != nil {
		return err
	}

	st := stylesFor(cmd.OutOrStdout())
	// Results arrive from timer goroutines.
	var mu sync.Mutex
	w, err := watch.New(args[0], ingestService, watch.Options{
		Overrides:  overrides,
		UploadedBy: watchFlags.user,
		Settle:     watchSettle,
		Existing:   watchExisting,
		OnResult: func(r watch.Result) {
			mu.Lock()
			defer mu.Unlock()
			if r.Err != nil {
				cmd.Println(st.Warning.Render(fmt.Sprintf("%s: %v", r.Path, r.Err)))
				return
			}
			cmd.Println(st.Success.Render(fmt.Sprintf("%s indexed as %s (%d chunks)", r.Path, r.Ingest.DocID, r.Ingest.Chunks)))
		},
	})
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(ctx)
}
