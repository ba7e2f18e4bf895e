// Package watch ingests documents dropped into a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driving"
	"github.com/custodia-labs/docia/internal/logger"
)

// DefaultSettle is how long a file must stay unchanged before it is ingested.
const DefaultSettle = 2 * time.Second

// Result reports the outcome of one ingestion triggered by the watcher.
type Result struct {
	Path   string
	Ingest *domain.IngestResult
	Err    error
}

// Options configures a Watcher.
type Options struct {
	// Overrides are applied to every ingested document.
	Overrides domain.DocumentMetadata

	// UploadedBy is recorded on every ingested document.
	UploadedBy string

	// Settle is the quiet period after the last write event. Zero uses DefaultSettle.
	Settle time.Duration

	// Existing ingests the supported files already present when Run starts.
	Existing bool

	// OnResult is called after each ingestion. May be nil.
	OnResult func(Result)
}

// Watcher monitors a directory and ingests new or rewritten documents once
// their writes settle.
type Watcher struct {
	fs     *fsnotify.Watcher
	dir    string
	ingest driving.IngestService
	opts   Options

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher for dir. Call Run to start it and Close to stop it.
func New(dir string, ingest driving.IngestService, opts Options) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}

	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	return &Watcher{
		fs:      fsw,
		dir:     dir,
		ingest:  ingest,
		opts:    opts,
		pending: make(map[string]*time.Timer),
	}, nil
}

// Run processes file events until ctx is cancelled or the watcher is closed.
// Ingestions already scheduled are allowed to finish before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	logger.Info("Watching directory: %s", w.dir)
	defer w.wg.Wait()
	defer w.cancelPending()

	if w.opts.Existing {
		w.scanExisting(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			// Process only Create and Write events
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.schedule(ctx, event.Name)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				logger.Warn("watch: %v", err)
			}
		}
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) scanExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logger.Warn("watch: listing %s: %v", w.dir, err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		w.schedule(ctx, filepath.Join(w.dir, e.Name()))
	}
}

// schedule (re)starts the settle timer for path. Unsupported and hidden
// files are ignored.
func (w *Watcher) schedule(ctx context.Context, path string) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") || !w.ingest.Supports(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		logger.Debug("watch: %s still changing", name)
		t.Reset(w.opts.Settle)
		return
	}

	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.opts.Settle, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == timer {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.process(ctx, path)
	})
	w.pending[path] = timer
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	logger.Debug("watch: ingesting %s", path)

	result, err := w.ingest.IngestFile(ctx, path, w.opts.Overrides, w.opts.UploadedBy)
	if err != nil {
		logger.Warn("watch: %s: %v", path, err)
	} else {
		logger.Info("watch: %s indexed as %s (%d chunks)", path, result.DocID, result.Chunks)
	}
	if w.opts.OnResult != nil {
		w.opts.OnResult(Result{Path: path, Ingest: result, Err: err})
	}
}
