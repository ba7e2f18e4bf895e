// Package prometheus exports retrieval and ingestion events as Prometheus
// metrics.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/docia/internal/core/ports/driven"
)

// Ensure Observer implements the interface.
var _ driven.Observer = (*Observer)(nil)

// Namespace prefixes every metric name.
const Namespace = "docia"

// Observer records events into Prometheus collectors.
type Observer struct {
	registry *prometheus.Registry

	searchDuration    prometheus.Histogram
	searchResults     prometheus.Histogram
	searchFailures    *prometheus.CounterVec
	batchWrites       *prometheus.CounterVec
	recordsWritten    prometheus.Counter
	documentsIngested prometheus.Counter
	chunksIngested    prometheus.Counter
}

// New creates an observer with its own registry.
func New() *Observer {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Observer{
		registry: reg,
		searchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Time spent answering a search, including embedding.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		searchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "search",
			Name:      "results",
			Help:      "Number of results returned per search.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		searchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "search",
			Name:      "failures_total",
			Help:      "Searches degraded to an empty result, by failing stage.",
		}, []string{"stage"}),
		batchWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Vector store batch writes, by outcome.",
		}, []string{"outcome"}),
		recordsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "ingest",
			Name:      "records_written_total",
			Help:      "Records successfully written to the vector store.",
		}),
		documentsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Documents fully committed to the vector store.",
		}),
		chunksIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Chunks of fully committed documents.",
		}),
	}
}

// Registry returns the registry holding the collectors.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// SearchCompleted records latency and result count.
func (o *Observer) SearchCompleted(duration time.Duration, results int) {
	o.searchDuration.Observe(duration.Seconds())
	o.searchResults.Observe(float64(results))
}

// SearchFailed counts a degraded search.
func (o *Observer) SearchFailed(stage string) {
	o.searchFailures.WithLabelValues(stage).Inc()
}

// BatchWritten counts a batch write and its records.
func (o *Observer) BatchWritten(records int, err error) {
	if err != nil {
		o.batchWrites.WithLabelValues("error").Inc()
		return
	}
	o.batchWrites.WithLabelValues("ok").Inc()
	o.recordsWritten.Add(float64(records))
}

// DocumentIngested counts a committed document.
func (o *Observer) DocumentIngested(chunks int) {
	o.documentsIngested.Inc()
	o.chunksIngested.Add(float64(chunks))
}
