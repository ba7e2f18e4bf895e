package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_BootstrapReceivesGlobalFlags(t *testing.T) {
	defer SetBootstrap(nil)
	defer SetServices(nil)

	var got GlobalOptions
	ts := &testServices{retrieval: &mockRetrievalService{}}
	SetBootstrap(func(_ context.Context, opts GlobalOptions) (*Services, error) {
		got = opts
		return &Services{Retrieval: ts.retrieval}, nil
	})

	_, err := execute(t, "stats", "--data-dir", "/tmp/docia", "--config", "/tmp/cfg")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/docia", got.DataDir)
	assert.Equal(t, "/tmp/cfg", got.ConfigDir)
	assert.False(t, got.SettingsOnly)
	assert.False(t, got.PingEmbedding)
}

func TestRootCmd_WatchAsksForEmbeddingPing(t *testing.T) {
	defer SetBootstrap(nil)

	var got GlobalOptions
	unreachable := errors.New("embedding unreachable")
	SetBootstrap(func(_ context.Context, opts GlobalOptions) (*Services, error) {
		got = opts
		return nil, unreachable
	})

	_, err := execute(t, "watch", t.TempDir())

	require.ErrorIs(t, err, unreachable)
	assert.True(t, got.PingEmbedding)
}

func TestRootCmd_ConfigBootstrapsSettingsOnly(t *testing.T) {
	defer SetBootstrap(nil)
	defer SetServices(nil)

	var got GlobalOptions
	SetBootstrap(func(_ context.Context, opts GlobalOptions) (*Services, error) {
		got = opts
		return &Services{Settings: &mockSettingsService{}}, nil
	})

	_, err := execute(t, "config", "keys")

	require.NoError(t, err)
	assert.True(t, got.SettingsOnly)
}

func TestRootCmd_VersionSkipsBootstrap(t *testing.T) {
	defer SetBootstrap(nil)

	called := false
	SetBootstrap(func(_ context.Context, _ GlobalOptions) (*Services, error) {
		called = true
		return nil, errors.New("should not be called")
	})

	_, err := execute(t, "version")

	require.NoError(t, err)
	assert.False(t, called)
}

func TestRootCmd_BootstrapError(t *testing.T) {
	defer SetBootstrap(nil)

	SetBootstrap(func(_ context.Context, _ GlobalOptions) (*Services, error) {
		return nil, errors.New("ollama unreachable")
	})

	_, err := execute(t, "search", "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama unreachable")
}

func TestExecute_ClosesServices(t *testing.T) {
	closed := false
	SetServices(&Services{Close: func() error {
		closed = true
		return nil
	}})
	defer SetServices(nil)

	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, Execute(context.Background()))
	assert.True(t, closed)
}
