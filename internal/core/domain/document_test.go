package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadDate_RoundTrip(t *testing.T) {
	ts := time.Date(2024, 11, 5, 8, 30, 12, 345678000, time.UTC)

	s := FormatUploadDate(ts)
	assert.Equal(t, "2024-11-05T08:30:12.345678", s)

	parsed, err := ParseUploadDate(s)
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))
}

func TestUploadDate_Empty(t *testing.T) {
	assert.Equal(t, "", FormatUploadDate(time.Time{}))

	parsed, err := ParseUploadDate("")
	require.NoError(t, err)
	assert.True(t, parsed.IsZero())
}

func TestParseUploadDate_RFC3339(t *testing.T) {
	parsed, err := ParseUploadDate("2024-11-05T08:30:12Z")
	require.NoError(t, err)
	assert.Equal(t, 2024, parsed.Year())

	_, err = ParseUploadDate("yesterday")
	assert.Error(t, err)
}

func TestExtraction_IsEmpty(t *testing.T) {
	var nilExtraction *Extraction
	assert.True(t, nilExtraction.IsEmpty())
	assert.True(t, (&Extraction{}).IsEmpty())

	e := &Extraction{Chunks: []ChunkDraft{{Text: "a", Page: 1, TokenCount: 3}, {Text: "b", Page: 2, TokenCount: 4}}}
	assert.False(t, e.IsEmpty())
	assert.Equal(t, 7, e.TotalTokens())
	assert.Equal(t, 0, nilExtraction.TotalTokens())
}
