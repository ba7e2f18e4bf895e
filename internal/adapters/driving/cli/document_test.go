package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docia/internal/core/domain"
)

func TestStatsCmd_AllUsers(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "stats")

	require.NoError(t, err)
	assert.Equal(t, "", ts.retrieval.lastUserID)
	assert.Contains(t, out, "Chunks:    42")
	assert.Contains(t, out, "Documents: 2")
	assert.Contains(t, out, "By user")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")
}

func TestStatsCmd_ScopedJSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retrieval.stats = domain.CollectionStats{TotalChunks: 30, UniqueDocs: 1}

	out, err := execute(t, "stats", "--user", "alice", "--json")
	require.NoError(t, err)

	assert.Equal(t, "alice", ts.retrieval.lastUserID)
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	assert.EqualValues(t, 1, raw["unique_docs"])
	assert.NotContains(t, raw, "by_user")
}

func TestStatsCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retrieval.err = errors.New("store closed")

	_, err := execute(t, "stats")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read stats")
}

func TestDocumentsCmd_ListsUserDocuments(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "documents", "--user", "alice")

	require.NoError(t, err)
	assert.Equal(t, "alice", ts.retrieval.lastUserID)
	assert.Contains(t, out, "Documents uploaded by alice")
	assert.Contains(t, out, "general_Asthma_20240102_080000")
	assert.Contains(t, out, "Title: Asthma Pocket Guide")
	assert.Contains(t, out, "Total: 1 documents")
}

func TestDocumentsCmd_Empty(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retrieval.docs = nil

	out, err := execute(t, "documents", "--user", "carol")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents found for user: carol")
}

func TestDeleteCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute(t, "delete")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestDeleteCmd_Deletes(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "delete", "general_Asthma_20240102_080000")

	require.NoError(t, err)
	assert.Equal(t, "general_Asthma_20240102_080000", ts.retrieval.lastDocID)
	assert.Contains(t, out, "Document general_Asthma_20240102_080000 deleted.")
}

func TestDeleteCmd_NotFound(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retrieval.deleted = false

	out, err := execute(t, "delete", "missing")

	require.NoError(t, err)
	assert.Contains(t, out, "Document not found: missing")
}
