package domain

// CollectionStats aggregates the contents of the collection.
type CollectionStats struct {
	TotalChunks int `json:"total_chunks"`
	UniqueDocs  int `json:"unique_docs"`

	// ByUser breaks the totals down per uploader. Nil for user-scoped stats.
	ByUser map[string]UserStats `json:"by_user,omitempty"`
}

// UserStats is one uploader's share of the collection.
type UserStats struct {
	Chunks    int `json:"chunks"`
	Documents int `json:"documents"`
}
