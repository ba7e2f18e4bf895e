package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
)

// BuilderFunc creates a Chunker from its config table and the shared
// tokenizer. Values in cfg come straight from TOML or JSON decoding.
type BuilderFunc func(cfg map[string]any, tok driven.Tokenizer) (driven.Chunker, error)

// Registry maps chunker names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a builder. A later registration under the same name wins.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates the named chunker. Unknown names and invalid config values
// return domain.ErrInvalidInput.
func (r *Registry) Build(name string, cfg map[string]any, tok driven.Tokenizer) (driven.Chunker, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown chunker %q (have %v)", domain.ErrInvalidInput, name, r.Names())
	}
	c, err := builder(cfg, tok)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}
	return c, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
