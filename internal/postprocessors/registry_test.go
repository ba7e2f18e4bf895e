package postprocessors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docia/internal/adapters/driven/tokenizer/estimate"
	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
	"github.com/custodia-labs/docia/internal/postprocessors/chunker"
)

func sizedBuilder(size int) BuilderFunc {
	return func(_ map[string]any, tok driven.Tokenizer) (driven.Chunker, error) {
		return chunker.New(chunker.WithChunkSize(size), chunker.WithTokenizer(tok)), nil
	}
}

func TestRegistry_Build(t *testing.T) {
	var got driven.Tokenizer
	r := NewRegistry()
	r.Register("test", func(cfg map[string]any, tok driven.Tokenizer) (driven.Chunker, error) {
		got = tok
		return sizedBuilder(42)(cfg, tok)
	})

	c, err := r.Build("test", nil, estimate.New())

	require.NoError(t, err)
	assert.Equal(t, 42, c.ChunkSize())
	require.NotNil(t, got)
	assert.Equal(t, "estimate", got.Name())
}

func TestRegistry_Build_Unknown(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	_, err := r.Build("semantic", nil, nil)

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), `"semantic"`)
	assert.Contains(t, err.Error(), "chunker")
}

func TestRegistry_Build_BuilderError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	r.Register("broken", func(map[string]any, driven.Tokenizer) (driven.Chunker, error) {
		return nil, boom
	})

	_, err := r.Build("broken", nil, nil)

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "building broken")
}

func TestRegistry_HasAndNames(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Has("beta"))
	assert.Empty(t, r.Names())

	r.Register("beta", sizedBuilder(20))
	r.Register("alpha", sizedBuilder(10))

	assert.True(t, r.Has("beta"))
	assert.Equal(t, []string{"alpha", "beta"}, r.Names())
}

func TestBuildChunker(t *testing.T) {
	tests := []struct {
		name string
		cfg  map[string]any
		want int
	}{
		{"nil config", nil, chunker.DefaultChunkSize},
		{"missing key", map[string]any{"other": 1}, chunker.DefaultChunkSize},
		{"int", map[string]any{"chunk_size": 300}, 300},
		{"toml int64", map[string]any{"chunk_size": int64(500)}, 500},
		{"json float64", map[string]any{"chunk_size": float64(800)}, 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			RegisterDefaults(r)

			c, err := r.Build(ChunkerName, tt.cfg, nil)

			require.NoError(t, err)
			assert.Equal(t, tt.want, c.ChunkSize())
			assert.Len(t, c.Chunk("Short page.", 1, ""), 1)
		})
	}
}

func TestBuildChunker_InvalidSize(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"zero", 0},
		{"negative", int64(-5)},
		{"fractional", 12.5},
		{"string", "600"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			RegisterDefaults(r)

			_, err := r.Build(ChunkerName, map[string]any{"chunk_size": tt.value}, nil)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
