package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/banksia/pkg/metrics"
	"github.com/Ramsey-B/banksia/pkg/tracing"
)

// Cache is the key/value store backing CachedEmbedder
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// CachedEmbedder memoizes vectors keyed by model and a hash of the text.
// Cache failures are logged and fall through to the wrapped embedder.
type CachedEmbedder struct {
	next   Embedder
	cache  Cache
	model  string
	ttl    time.Duration
	logger ectologger.Logger
}

func NewCachedEmbedder(next Embedder, cache Cache, model string, ttl time.Duration, logger ectologger.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		next:   next,
		cache:  cache,
		model:  model,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := tracing.StartSpan(ctx, "embedding.CachedEmbedder.Embed")
	defer span.End()

	key := c.key(text)
	log := c.logger.WithContext(ctx).WithFields(map[string]any{"cache_key": key})

	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warn("embedding cache read failed")
	} else if ok {
		var vector []float32
		if err := json.Unmarshal([]byte(raw), &vector); err == nil && len(vector) > 0 {
			metrics.RecordCacheLookup(true)
			return vector, nil
		}
		log.Warn("discarding unreadable cached embedding")
	}
	metrics.RecordCacheLookup(false)

	vector, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(vector)
	if err == nil {
		if err := c.cache.Set(ctx, key, string(encoded), c.ttl); err != nil {
			log.WithError(err).Warn("embedding cache write failed")
		}
	}
	return vector, nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "banksia:embedding:" + c.model + ":" + hex.EncodeToString(sum[:])
}
