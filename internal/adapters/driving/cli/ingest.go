package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docia/internal/core/domain"
)

// documentFlags are the metadata overrides shared by ingest and watch.
type documentFlags struct {
	title     string
	specialty string
	year      int
	docType   string
	user      string
}

func (f *documentFlags) register(cmd *cobra.Command, withTitle bool) {
	if withTitle {
		cmd.Flags().StringVar(&f.title, "title", "", "document title (default: extracted from the file)")
	}
	cmd.Flags().StringVar(&f.specialty, "specialty", "", "medical specialty (default: general)")
	cmd.Flags().IntVar(&f.year, "year", 0, "publication year (default: current year)")
	cmd.Flags().StringVar(&f.docType, "type", "", "document type: guideline, textbook, paper, notes, presentation")
	cmd.Flags().StringVarP(&f.user, "user", "u", "", "uploader identity (default: system)")
}

func (f *documentFlags) overrides() (domain.DocumentMetadata, error) {
	if f.year < 0 {
		return domain.DocumentMetadata{}, fmt.Errorf("%w: year %d", domain.ErrInvalidInput, f.year)
	}
	return domain.DocumentMetadata{
		Title:     f.title,
		Specialty: f.specialty,
		Year:      f.year,
		Type:      f.docType,
	}, nil
}

var ingestFlags documentFlags

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]...",
	Short: "Index PDF and PowerPoint files",
	Long: `Extracts text from each file, splits it into chunks of at most 600 tokens,
embeds the chunks and stores them in the collection.

Re-ingesting a file creates a new document; delete the old one first
with 'docia delete <doc_id>'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestFlags.register(ingestCmd, true)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if ingestFlags.title != "" && len(args) > 1 {
		return fmt.Errorf("%w: --title applies to a single file", domain.ErrInvalidInput)
	}

	overrides, err := ingestFlags.overrides()
	if err != nil {
		return err
	}

	st := stylesFor(cmd.OutOrStdout())
	failed := 0
	for _, path := range args {
		if !ingestService.Supports(path) {
			cmd.Printf("Skipping %s: unsupported file type\n", path)
			failed++
			continue
		}

		cmd.Printf("Indexing %s...\n", path)
		result, err := ingestService.IngestFile(cmd.Context(), path, overrides, ingestFlags.user)
		switch {
		case errors.Is(err, domain.ErrNothingToIndex):
			cmd.Println(st.Warning.Render(fmt.Sprintf("  No text could be extracted from %s; nothing indexed.", path)))
			failed++
		case err != nil:
			cmd.Println(st.Warning.Render(fmt.Sprintf("  Failed: %v", err)))
			failed++
		default:
			cmd.Println(st.Success.Render(fmt.Sprintf("  %q indexed as %s (%d chunks, %d tokens)",
				result.Title, result.DocID, result.Chunks, result.Tokens)))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files not indexed", failed, len(args))
	}
	return nil
}
