package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docia/internal/core/domain"
)

var (
	searchLimit   int
	searchFilters []string
	searchUser    string
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Embeds the query and returns the closest chunks from the collection,
each with a relevance score from 2 (weak) to 10 (strong).

Filters are metadata equalities and may be repeated:
  docia search "troponin timing" --filter specialty=cardiology --filter year=2023`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from search.default_limit)")
	searchCmd.Flags().StringArrayVarP(&searchFilters, "filter", "f", nil, "metadata filter key=value (repeatable)")
	searchCmd.Flags().StringVarP(&searchUser, "user", "u", "", "only search documents uploaded by this user")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := requireRetrieval(); err != nil {
		return err
	}

	filters, err := domain.ParseFilter(searchFilters)
	if err != nil {
		return err
	}

	limit := searchLimit
	if limit <= 0 && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			limit = settings.SearchLimit
		}
	}

	opts := domain.SearchOptions{
		Limit:   limit,
		Filters: filters,
		UserID:  searchUser,
	}
	results := retrievalService.Search(cmd.Context(), strings.Join(args, " "), opts)

	if searchJSON {
		return outputJSON(cmd, results)
	}
	outputSearchResults(cmd, results)
	return nil
}
