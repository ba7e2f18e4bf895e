package limited

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowEmbedder records the peak number of concurrent calls.
type slowEmbedder struct {
	inFlight int32
	peak     int32
	calls    int32
	closed   bool

	mu    sync.Mutex
	sizes []int
}

func (e *slowEmbedder) enter() {
	atomic.AddInt32(&e.calls, 1)
	n := atomic.AddInt32(&e.inFlight, 1)
	for {
		p := atomic.LoadInt32(&e.peak)
		if n <= p || atomic.CompareAndSwapInt32(&e.peak, p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	atomic.AddInt32(&e.inFlight, -1)
}

func (e *slowEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	e.enter()
	return []float32{1}, nil
}

func (e *slowEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.enter()
	e.mu.Lock()
	e.sizes = append(e.sizes, len(texts))
	e.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text))}
	}
	return out, nil
}

func (e *slowEmbedder) Dimensions() int              { return 1 }
func (e *slowEmbedder) ModelName() string            { return "slow" }
func (e *slowEmbedder) Ping(_ context.Context) error { return nil }
func (e *slowEmbedder) Close() error {
	e.closed = true
	return nil
}

func TestWrap_NoLimitsReturnsNext(t *testing.T) {
	next := &slowEmbedder{}
	assert.Same(t, next, Wrap(next, Config{}))
	assert.IsType(t, &EmbeddingService{}, Wrap(next, Config{MaxConcurrency: 1}))
}

func TestEmbed_BoundsConcurrency(t *testing.T) {
	next := &slowEmbedder{}
	s := New(next, Config{MaxConcurrency: 2})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Embed(context.Background(), "x")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), atomic.LoadInt32(&next.calls))
	assert.LessOrEqual(t, atomic.LoadInt32(&next.peak), int32(2))
}

func TestEmbedBatch_RateLimited(t *testing.T) {
	next := &slowEmbedder{}
	s := New(next, Config{RequestsPerSecond: 20})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := s.EmbedBatch(context.Background(), []string{"a", "b"})
		require.NoError(t, err)
	}
	// Burst of one: the second and third calls wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestEmbedBatch_SplitsIntoProviderRequests(t *testing.T) {
	next := &slowEmbedder{}
	s := New(next, Config{MaxConcurrency: 1, RequestSize: 2})

	got, err := s.EmbedBatch(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})

	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, next.sizes)
	require.Len(t, got, 5)
	for i, v := range got {
		assert.Equal(t, []float32{float32(i + 1)}, v)
	}
}

func TestEmbedBatch_TokenPerProviderRequest(t *testing.T) {
	next := &slowEmbedder{}
	s := New(next, Config{RequestsPerSecond: 20, RequestSize: 2})

	start := time.Now()
	_, err := s.EmbedBatch(context.Background(), []string{"a", "b", "c", "d", "e", "f"})
	require.NoError(t, err)

	// Three requests with a burst of one: the second and third wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&next.calls))
}

func TestEmbedBatch_NoRequestSizeIsOneRequest(t *testing.T) {
	next := &slowEmbedder{}
	s := New(next, Config{MaxConcurrency: 1})

	_, err := s.EmbedBatch(context.Background(), make([]string, 40))

	require.NoError(t, err)
	assert.Equal(t, []int{40}, next.sizes)
}

func TestEmbed_ContextCancelledWhileWaiting(t *testing.T) {
	s := New(&slowEmbedder{}, Config{MaxConcurrency: 1})
	s.sem <- struct{}{} // occupy the only slot

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Embed(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDelegates(t *testing.T) {
	next := &slowEmbedder{}
	s := New(next, Config{MaxConcurrency: 1})
	assert.Equal(t, 1, s.Dimensions())
	assert.Equal(t, "slow", s.ModelName())
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
	assert.True(t, next.closed)
}
