package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	statsUser     string
	statsJSON     bool
	documentsUser string
	documentsJSON bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	Long: `Counts indexed chunks and distinct documents. Without --user the totals
are broken down per uploader.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List a user's documents",
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Long:  `Removes every chunk of the document from the collection.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	statsCmd.Flags().StringVarP(&statsUser, "user", "u", "", "only count documents uploaded by this user")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")

	documentsCmd.Flags().StringVarP(&documentsUser, "user", "u", "", "uploader whose documents to list")
	documentsCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	_ = documentsCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := requireRetrieval(); err != nil {
		return err
	}

	stats, err := retrievalService.GetCollectionStats(cmd.Context(), statsUser)
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	if statsJSON {
		return outputJSON(cmd, stats)
	}
	outputStats(cmd, stats, statsUser)
	return nil
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	if err := requireRetrieval(); err != nil {
		return err
	}

	docs, err := retrievalService.GetUserDocuments(cmd.Context(), documentsUser)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentsJSON {
		return outputJSON(cmd, docs)
	}
	outputDocuments(cmd, documentsUser, docs)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := requireRetrieval(); err != nil {
		return err
	}

	docID := args[0]
	deleted, err := retrievalService.DeleteDocument(cmd.Context(), docID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if !deleted {
		cmd.Printf("Document not found: %s\n", docID)
		return nil
	}

	cmd.Printf("Document %s deleted.\n", docID)
	return nil
}
