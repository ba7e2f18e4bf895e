package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docia/internal/core/domain"
)

// fakeOllama answers /api/embed with vectors of the given size whose first
// component is the input length.
func fakeOllama(t *testing.T, dims int, calls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		var req embedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		resp := embedResponse{}
		for _, in := range req.Input {
			v := make([]float32, dims)
			v[0] = float32(len(in))
			resp.Embeddings = append(resp.Embeddings, v)
		}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.NoError(t, s.Close())
}

func TestEmbed(t *testing.T) {
	srv := fakeOllama(t, 4, nil)
	s := NewEmbeddingService(Config{BaseURL: srv.URL + "/", Dimensions: 4})

	v, err := s.Embed(context.Background(), "chest pain")
	require.NoError(t, err)
	assert.Equal(t, []float32{10, 0, 0, 0}, v)
}

func TestEmbedBatch_SplitsRequests(t *testing.T) {
	var calls int32
	srv := fakeOllama(t, 2, &calls)
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 2})

	texts := make([]string, MaxBatch+5)
	for i := range texts {
		texts[i] = string(make([]byte, i))
	}

	got, err := s.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, got, len(texts))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	for i, v := range got {
		assert.Equal(t, float32(i), v[0], "order preserved at %d", i)
	}
}

func TestEmbedBatch_Empty(t *testing.T) {
	s := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	got, err := s.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	srv := fakeOllama(t, 3, nil)
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 768})

	_, err := s.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()
	s := NewEmbeddingService(Config{BaseURL: srv.URL})

	_, err := s.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "model not found")
}

func TestEmbed_Unreachable(t *testing.T) {
	s := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := s.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbed_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[]}`))
	}))
	defer srv.Close()
	s := NewEmbeddingService(Config{BaseURL: srv.URL})

	_, err := s.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestPing(t *testing.T) {
	srv := fakeOllama(t, 2, nil)
	assert.NoError(t, NewEmbeddingService(Config{BaseURL: srv.URL}).Ping(context.Background()))

	down := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	assert.ErrorIs(t, down.Ping(context.Background()), domain.ErrEmbeddingUnavailable)
}
