package driven

import "time"

// Search stages reported to an Observer when retrieval degrades.
const (
	StageFilter = "filter"
	StageEmbed  = "embed"
	StageQuery  = "query"
)

// Observer receives retrieval and ingestion events.
// This is optional - when nil, events are dropped.
type Observer interface {
	// SearchCompleted records a search that returned results (possibly none).
	SearchCompleted(duration time.Duration, results int)

	// SearchFailed records a search that degraded to an empty result.
	SearchFailed(stage string)

	// BatchWritten records one store write during ingestion.
	BatchWritten(records int, err error)

	// DocumentIngested records a fully committed document.
	DocumentIngested(chunks int)
}
