package driven

// Tokenizer counts tokens. Chunking and token accounting share one instance.
type Tokenizer interface {
	// Count returns the number of tokens in text.
	Count(text string) int

	// Name identifies the encoding (e.g., "cl100k_base").
	Name() string
}
