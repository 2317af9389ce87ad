package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"domain-chat-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

// KV is the narrow cache surface the decorator needs. *redis.Client
// satisfies it.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// cachedClient wraps a Client with a redis vector cache. Embeddings are
// deterministic per model, so a hit never goes stale; the TTL only bounds
// memory.
type cachedClient struct {
	inner Client
	rdb   KV
	model string
	ttl   time.Duration
}

// NewCachedClient decorates inner with a redis cache keyed by model and text.
func NewCachedClient(inner Client, rdb KV, model string, ttl time.Duration) Client {
	return &cachedClient{inner: inner, rdb: rdb, model: model, ttl: ttl}
}

func (c *cachedClient) key(text string) string {
	sum := sha256.Sum256([]byte(c.model + "|" + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

// CreateEmbedding returns the cached vector when present, otherwise embeds
// and stores the result.
func (c *cachedClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// CreateEmbeddings serves each text from the cache where possible and embeds
// the misses in one batch call, preserving input order.
func (c *cachedClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		raw, err := c.rdb.Get(ctx, c.key(text)).Bytes()
		if err == redis.Nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, text)
			continue
		}
		if err != nil {
			// Cache trouble is never fatal; fall through to the API.
			log.Warnf("[EmbeddingCache] redis get failed: %v", err)
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, text)
			continue
		}
		var vec []float32
		if err := json.Unmarshal(raw, &vec); err != nil {
			log.Warnf("[EmbeddingCache] undecodable cache entry, re-embedding: %v", err)
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, text)
			continue
		}
		vectors[i] = vec
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}
	log.Infof("[EmbeddingCache] %d/%d texts missed the cache", len(missTexts), len(texts))

	fetched, err := c.inner.CreateEmbeddings(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for n, i := range missIdx {
		vectors[i] = fetched[n]
		raw, err := json.Marshal(fetched[n])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal embedding for cache: %w", err)
		}
		if err := c.rdb.Set(ctx, c.key(texts[i]), raw, c.ttl).Err(); err != nil {
			log.Warnf("[EmbeddingCache] redis set failed: %v", err)
		}
	}
	return vectors, nil
}
