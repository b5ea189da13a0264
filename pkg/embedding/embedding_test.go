package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type memoryCache struct {
	mu      sync.Mutex
	values  map[string]string
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	m.lastTTL = ttl
	return nil
}

func countingEmbedder(calls *int) Embedder {
	return EmbedFunc(func(_ context.Context, text string) ([]float32, error) {
		*calls++
		return []float32{float32(len(text)), 1, 0}, nil
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}

func TestCachedEmbedder_HitsCacheOnSecondCall(t *testing.T) {
	calls := 0
	cache := newMemoryCache()
	embedder := NewCachedEmbedder(countingEmbedder(&calls), cache, "text-embedding-004", time.Hour, testLogger())

	first, err := embedder.Embed(context.Background(), "acme plumbing")
	require.NoError(t, err)
	second, err := embedder.Embed(context.Background(), "acme plumbing")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, time.Hour, cache.lastTTL)
	assert.Len(t, cache.values, 1)
}

func TestCachedEmbedder_CacheFailuresFallThrough(t *testing.T) {
	calls := 0
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	embedder := NewCachedEmbedder(countingEmbedder(&calls), cache, "m", time.Minute, testLogger())

	vector, err := embedder.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1, 0}, vector)
	assert.Equal(t, 1, calls)
}

func TestCachedEmbedder_PropagatesEmbedError(t *testing.T) {
	failing := EmbedFunc(func(context.Context, string) ([]float32, error) {
		return nil, errors.New("quota exceeded")
	})
	embedder := NewCachedEmbedder(failing, newMemoryCache(), "m", time.Minute, testLogger())

	_, err := embedder.Embed(context.Background(), "abc")
	assert.EqualError(t, err, "quota exceeded")
}
