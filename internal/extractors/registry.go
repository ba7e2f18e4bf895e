// Package extractors turns source files into chunk drafts. Each extractor
// handles one file format and is registered by extension.
package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
	"github.com/custodia-labs/docia/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches files to extractors by lower-case extension.
// A later registration for the same extension replaces the earlier one.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.Extractor
}

// NewRegistry creates a registry holding the given extractors.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{extractors: make(map[string]driven.Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds an extractor for each of its extensions.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range extractor.Extensions() {
		r.extractors[strings.ToLower(ext)] = extractor
	}
}

// Supports reports whether the path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.lookup(path)
	return ok
}

// Extensions returns every registered extension in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract runs the extractor registered for the file's extension.
func (r *Registry) Extract(ctx context.Context, path string) (*domain.Extraction, error) {
	extractor, ok := r.lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(path))
	}
	logger.Debug("extract: %s via %s", path, extractor.Name())
	return extractor.Extract(ctx, path)
}

func (r *Registry) lookup(path string) (driven.Extractor, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[ext]
	return e, ok
}
