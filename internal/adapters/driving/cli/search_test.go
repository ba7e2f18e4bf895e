package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docia/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	_, err := execute(t, "search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestSearchCmd_NoService(t *testing.T) {
	SetServices(nil)

	_, err := execute(t, "search", "chest pain")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval service not configured")
}

func TestSearchCmd_PrintsResults(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "search", "chest", "pain", "-n", "3", "--user", "alice", "--filter", "specialty=cardiology")

	require.NoError(t, err)
	assert.Contains(t, out, "[1] ESC Chest Pain - Rule-out algorithms, p. 12 (10/10)")
	assert.Contains(t, out, "troponin")

	assert.Equal(t, "chest pain", ts.retrieval.lastQuery)
	assert.Equal(t, 3, ts.retrieval.lastOpts.Limit)
	assert.Equal(t, "alice", ts.retrieval.lastOpts.UserID)
	assert.Equal(t, domain.Filter{"specialty": "cardiology"}, ts.retrieval.lastOpts.Filters)
}

func TestSearchCmd_DefaultLimitFromSettings(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.SearchLimit = 7

	_, err := execute(t, "search", "sepsis")

	require.NoError(t, err)
	assert.Equal(t, 7, ts.retrieval.lastOpts.Limit)
}

func TestSearchCmd_NoResults(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retrieval.results = nil

	out, err := execute(t, "search", "chest pain")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "search", "troponin", "--json")
	require.NoError(t, err)

	var results []domain.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, 10, results[0].RelevanceScore)
	assert.Equal(t, "ESC Chest Pain", results[0].Metadata.Title)
}

func TestSearchCmd_RejectsMalformedFilter(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "search", "x", "--filter", "colour=red")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n\nb   c", 10))
	assert.Equal(t, "abc…", snippet("abcdef", 3))
}
