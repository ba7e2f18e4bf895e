package prometheus

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docia/internal/core/ports/driven"
)

func TestObserver_Search(t *testing.T) {
	o := New()
	o.SearchCompleted(20*time.Millisecond, 3)
	o.SearchCompleted(40*time.Millisecond, 0)
	o.SearchFailed(driven.StageEmbed)
	o.SearchFailed(driven.StageEmbed)
	o.SearchFailed(driven.StageQuery)

	assert.Equal(t, 1, testutil.CollectAndCount(o.searchDuration))
	assert.Equal(t, uint64(2), sampleCount(t, o, "docia_search_duration_seconds"))
	assert.Equal(t, uint64(2), sampleCount(t, o, "docia_search_results"))
	assert.InDelta(t, 2, testutil.ToFloat64(o.searchFailures.WithLabelValues(driven.StageEmbed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(o.searchFailures.WithLabelValues(driven.StageQuery)), 0)
}

// sampleCount returns the number of observations of the named histogram.
func sampleCount(t *testing.T, o *Observer, name string) uint64 {
	t.Helper()
	families, err := o.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	t.Fatalf("histogram %s not registered", name)
	return 0
}

func TestObserver_Ingest(t *testing.T) {
	o := New()
	o.BatchWritten(100, nil)
	o.BatchWritten(37, nil)
	o.BatchWritten(100, errors.New("disk full"))
	o.DocumentIngested(137)

	assert.InDelta(t, 2, testutil.ToFloat64(o.batchWrites.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(o.batchWrites.WithLabelValues("error")), 0)
	assert.InDelta(t, 137, testutil.ToFloat64(o.recordsWritten), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(o.documentsIngested), 0)
	assert.InDelta(t, 137, testutil.ToFloat64(o.chunksIngested), 0)
}

func TestObserver_Handler(t *testing.T) {
	o := New()
	o.DocumentIngested(5)

	rec := httptest.NewRecorder()
	o.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "docia_ingest_documents_total 1")
	assert.Contains(t, string(body), "docia_ingest_chunks_total 5")
}
