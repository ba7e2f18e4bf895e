package domain

// DefaultSearchLimit is the number of results returned when none is requested.
const DefaultSearchLimit = 5

// SearchOptions configures a retrieval query.
type SearchOptions struct {
	// Limit is the maximum number of results (default: 5).
	Limit int

	// Filters are AND-equality constraints over record metadata.
	Filters Filter

	// UserID scopes the search to records uploaded by this user.
	// It adds to Filters and never loosens them.
	UserID string
}

// SearchResult is a ranked chunk returned to the caller.
type SearchResult struct {
	ChunkID        string         `json:"chunk_id"`
	Text           string         `json:"text"`
	Distance       float64        `json:"distance"`
	Metadata       RecordMetadata `json:"metadata"`
	RelevanceScore int            `json:"relevance_score"`
}

// RelevanceScore maps a cosine distance onto the discrete 10/8/6/4/2 scale.
// Lower distance means higher relevance.
func RelevanceScore(distance float64) int {
	switch {
	case distance < 0.4:
		return 10
	case distance < 0.6:
		return 8
	case distance < 0.8:
		return 6
	case distance < 1.0:
		return 4
	default:
		return 2
	}
}
