package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docia/internal/core/domain"
)

// snippetRunes bounds the chunk text printed per search result.
const snippetRunes = 280

// styles holds the lipgloss styles used for terminal output.
type styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Score   map[int]lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
}

func newStyles(enabled bool) *styles {
	if !enabled {
		plain := lipgloss.NewStyle()
		return &styles{
			Title:   plain,
			Muted:   plain,
			Score:   map[int]lipgloss.Style{},
			Success: plain,
			Warning: plain,
		}
	}

	return &styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")), // Purple
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")), // Medium gray
		Score: map[int]lipgloss.Style{
			10: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1")), // Green
			8:  lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
			6:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")), // Yellow
			4:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387")), // Peach
			2:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")), // Red
		},
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
	}
}

func (s *styles) score(n int) string {
	label := fmt.Sprintf("%d/10", n)
	if st, ok := s.Score[n]; ok {
		return st.Render(label)
	}
	return label
}

// stylesFor enables colour only when w is a terminal.
func stylesFor(w io.Writer) *styles {
	f, ok := w.(*os.File)
	return newStyles(ok && term.IsTerminal(int(f.Fd())))
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchResults(cmd *cobra.Command, results []domain.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	st := stylesFor(cmd.OutOrStdout())
	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := results[i]
		// Format: [N] Title - Section, p. Page (score)
		cmd.Printf("  [%d] %s - %s, p. %d (%s)\n",
			i+1, st.Title.Render(r.Metadata.Title), r.Metadata.Section, r.Metadata.Page, st.score(r.RelevanceScore))
		cmd.Printf("      %s\n", st.Muted.Render(fmt.Sprintf("%s · distance %.3f", r.ChunkID, r.Distance)))
		cmd.Printf("      %s\n", snippet(r.Text, snippetRunes))
		cmd.Println()
	}
}

func outputStats(cmd *cobra.Command, stats domain.CollectionStats, userID string) {
	st := stylesFor(cmd.OutOrStdout())
	if userID != "" {
		cmd.Println(st.Title.Render("Collection (user " + userID + ")"))
	} else {
		cmd.Println(st.Title.Render("Collection"))
	}
	cmd.Printf("  Chunks:    %d\n", stats.TotalChunks)
	cmd.Printf("  Documents: %d\n", stats.UniqueDocs)

	if len(stats.ByUser) == 0 {
		return
	}
	cmd.Println()
	cmd.Println(st.Title.Render("By user"))
	for _, user := range sortedKeys(stats.ByUser) {
		us := stats.ByUser[user]
		cmd.Printf("  %-20s %5d documents %7d chunks\n", user, us.Documents, us.Chunks)
	}
}

func outputDocuments(cmd *cobra.Command, userID string, docs []domain.DocumentSummary) {
	if len(docs) == 0 {
		cmd.Printf("No documents found for user: %s\n", userID)
		return
	}

	st := stylesFor(cmd.OutOrStdout())
	cmd.Printf("Documents uploaded by %s:\n\n", userID)
	for i := range docs {
		d := docs[i]
		cmd.Printf("  %s\n", st.Title.Render(d.DocID))
		cmd.Printf("    Title: %s\n", d.Title)
		cmd.Printf("    Specialty: %s  Year: %d  Type: %s\n", d.Specialty, d.Year, d.Type)
		cmd.Printf("    Chunks: %d  Uploaded: %s\n", d.Chunks, domain.FormatUploadDate(d.UploadDate))
		cmd.Println()
	}
	cmd.Printf("Total: %d documents\n", len(docs))
}

// snippet collapses whitespace and truncates to n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "…"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
