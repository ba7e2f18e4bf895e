package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels_Verbose(t *testing.T) {
	buf := capture(t, true)

	Debug("embedding %d chunks", 3)
	Info("indexed %s", "doc")
	Warn("skipping %s", "broken.pdf")

	assert.Equal(t,
		"[DEBUG] embedding 3 chunks\n[INFO] indexed doc\n[WARN] skipping broken.pdf\n",
		buf.String())
}

func TestLevels_Quiet(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Info("hidden")
	Section("Hidden")
	Warn("shown %d", 1)

	assert.Equal(t, "[WARN] shown 1\n", buf.String())
}

func TestEnabled(t *testing.T) {
	capture(t, false)
	assert.False(t, Enabled(LevelDebug))
	assert.False(t, Enabled(LevelInfo))
	assert.True(t, Enabled(LevelWarn))

	SetVerbose(true)
	assert.True(t, Enabled(LevelDebug))
}

func TestSection(t *testing.T) {
	buf := capture(t, true)

	Section("Bootstrap")

	assert.Equal(t, "\n=== Bootstrap ===\n", buf.String())
}

func TestSince(t *testing.T) {
	buf := capture(t, true)

	Since(time.Now().Add(-time.Second), "ingested %s", "guideline.pdf")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[DEBUG] ingested guideline.pdf ("), out)
	assert.True(t, strings.HasSuffix(out, "s)\n"), out)
}

func TestSince_Quiet(t *testing.T) {
	buf := capture(t, false)

	Since(time.Now(), "ignored")

	assert.Empty(t, buf.String())
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "LEVEL(9)", Level(9).String())
}
