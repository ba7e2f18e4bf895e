// Package limited wraps an embedding service with a concurrency bound and a
// token-bucket rate limit, so that concurrent searches and ingestion share
// one provider quota.
package limited

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docia/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Config bounds calls to the wrapped service.
type Config struct {
	// MaxConcurrency is the number of in-flight calls. Zero means unbounded.
	MaxConcurrency int

	// RequestsPerSecond is the sustained rate of provider requests. Zero
	// means unlimited.
	RequestsPerSecond float64

	// RequestSize is the number of inputs the wrapped service sends per
	// provider request. EmbedBatch is split into requests of this size, each
	// taking its own slot and token. Zero sends a batch as one request.
	RequestSize int

	// Burst is the token bucket size (default: 1).
	Burst int
}

// EmbeddingService decorates another embedding service.
type EmbeddingService struct {
	next        driven.EmbeddingService
	sem         chan struct{}
	limiter     *rate.Limiter
	requestSize int
}

// Wrap returns next unchanged when cfg imposes no limit.
func Wrap(next driven.EmbeddingService, cfg Config) driven.EmbeddingService {
	if cfg.MaxConcurrency <= 0 && cfg.RequestsPerSecond <= 0 {
		return next
	}
	return New(next, cfg)
}

// New creates a limited embedding service.
func New(next driven.EmbeddingService, cfg Config) *EmbeddingService {
	s := &EmbeddingService{next: next, requestSize: cfg.RequestSize}
	if cfg.MaxConcurrency > 0 {
		s.sem = make(chan struct{}, cfg.MaxConcurrency)
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return s
}

func (s *EmbeddingService) acquire(ctx context.Context) (func(), error) {
	if s.sem != nil {
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	release := func() {
		if s.sem != nil {
			<-s.sem
		}
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			release()
			return nil, err
		}
	}
	return release, nil
}

// Embed waits for a slot and a token, then delegates.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.next.Embed(ctx, text)
}

// EmbedBatch sends texts in requests of at most RequestSize inputs, waiting
// for a slot and a token before each one.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	size := s.requestSize
	if size <= 0 || size > len(texts) {
		size = len(texts)
	}
	if size == 0 {
		return s.embedRequest(ctx, texts)
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := s.embedRequest(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

func (s *EmbeddingService) embedRequest(ctx context.Context, texts []string) ([][]float32, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.next.EmbedBatch(ctx, texts)
}

// Dimensions delegates.
func (s *EmbeddingService) Dimensions() int {
	return s.next.Dimensions()
}

// ModelName delegates.
func (s *EmbeddingService) ModelName() string {
	return s.next.ModelName()
}

// Ping bypasses the limits.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error {
	return s.next.Close()
}
