package embcache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/minio/highwayhash"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/db"
	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/vector"
)

const cacheKeyPrefix = domain.KeyPrefix + "emb_cache:"

// keyHashSeed keys the cache-key hash. Changing it invalidates the cache.
var keyHashSeed = []byte("supportrag/embcache/v1-000000000")

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options scope cache entries to one model configuration.
type Options struct {
	Model string
	Dim   int
	TTL   time.Duration // 0 = no expiry
}

// CachedEmbedder caches embeddings in a key-value store.
// Cache failures are logged and never fail Embed.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	opts       Options
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Embedder,
	s store,
	opts Options,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		opts:       opts,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed returns a cached embedding or calls the inner embedder.
// A hit reports zero tokens.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	c.incCache("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.putToCache(ctx, key, result.Embedding)
	return result, nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h, err := highwayhash.New128(keyHashSeed)
	if err != nil {
		panic(err) // seed length is a compile-time constant
	}
	_, _ = h.Write([]byte(text))
	return fmt.Sprintf("%s%s:%d:%s", cacheKeyPrefix, c.opts.Model, c.opts.Dim, hex.EncodeToString(h.Sum(nil)))
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	vec, err := vector.FromBytes(data)
	if err != nil || len(vec) == 0 || (c.opts.Dim > 0 && len(vec) != c.opts.Dim) {
		c.logger.Warn("Ignoring malformed cached embedding",
			zap.String("key", key), zap.Int("bytes", len(data)), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) putToCache(ctx context.Context, key string, vec []float32) {
	data := vector.ToBytes(vec)
	var err error
	if c.opts.TTL > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.opts.TTL)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}
