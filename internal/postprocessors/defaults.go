// Package postprocessors builds chunkers from configuration.
package postprocessors

import (
	"fmt"
	"math"

	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
	"github.com/custodia-labs/docia/internal/postprocessors/chunker"
)

// ChunkerName is the registry name of the section-aware page chunker.
const ChunkerName = "chunker"

// RegisterDefaults registers the built-in chunkers.
func RegisterDefaults(r *Registry) {
	r.Register(ChunkerName, buildChunker)
}

// buildChunker reads chunk_size (tokens, default 600) from cfg.
func buildChunker(cfg map[string]any, tok driven.Tokenizer) (driven.Chunker, error) {
	opts := []chunker.Option{chunker.WithTokenizer(tok)}

	size, ok, err := intFromConfig(cfg, "chunk_size")
	if err != nil {
		return nil, err
	}
	if ok {
		if size <= 0 {
			return nil, fmt.Errorf("%w: chunk_size must be positive, got %d", domain.ErrInvalidInput, size)
		}
		opts = append(opts, chunker.WithChunkSize(size))
	}

	return chunker.New(opts...), nil
}

// intFromConfig extracts an integer. TOML decodes integers as int64 and JSON
// as float64; a float with a fractional part or a non-numeric value is
// rejected.
func intFromConfig(cfg map[string]any, key string) (int, bool, error) {
	val, ok := cfg[key]
	if !ok {
		return 0, false, nil
	}

	switch v := val.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, false, fmt.Errorf("%w: %s must be an integer, got %v", domain.ErrInvalidInput, key, v)
		}
		return int(v), true, nil
	default:
		return 0, false, fmt.Errorf("%w: %s must be an integer, got %T", domain.ErrInvalidInput, key, val)
	}
}
