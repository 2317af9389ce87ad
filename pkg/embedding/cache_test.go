package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV is an in-memory KV with injectable failures.
type fakeKV struct {
	data   map[string][]byte
	getErr error
	sets   int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	raw, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(raw), nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.sets++
	f.data[key] = value.([]byte)
	return redis.NewStatusResult("OK", nil)
}

// countingEmbedder records every batch it serves and maps each text to a
// distinct deterministic vector.
type countingEmbedder struct {
	batches [][]string
}

func (c *countingEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *countingEmbedder) CreateEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	c.batches = append(c.batches, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func TestCachedClient_MissThenHit(t *testing.T) {
	kv := newFakeKV()
	inner := &countingEmbedder{}
	client := NewCachedClient(inner, kv, "test-model", time.Minute)

	first, err := client.CreateEmbeddings(context.Background(), []string{"one", "three"})
	require.NoError(t, err)
	require.Len(t, inner.batches, 1)
	assert.Equal(t, []string{"one", "three"}, inner.batches[0])
	assert.Equal(t, 2, kv.sets)

	// The second call is served entirely from the cache.
	second, err := client.CreateEmbeddings(context.Background(), []string{"one", "three"})
	require.NoError(t, err)
	assert.Len(t, inner.batches, 1)
	assert.Equal(t, first, second)
}

func TestCachedClient_PartialHitPreservesOrder(t *testing.T) {
	kv := newFakeKV()
	inner := &countingEmbedder{}
	client := NewCachedClient(inner, kv, "test-model", time.Minute)

	_, err := client.CreateEmbeddings(context.Background(), []string{"bb"})
	require.NoError(t, err)

	vectors, err := client.CreateEmbeddings(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)

	// Only the two misses reach the inner client, in input order.
	require.Len(t, inner.batches, 2)
	assert.Equal(t, []string{"a", "ccc"}, inner.batches[1])

	// The merged result keeps the caller's order regardless of hit/miss.
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{1, 1}, vectors[0])
	assert.Equal(t, []float32{2, 1}, vectors[1])
	assert.Equal(t, []float32{3, 1}, vectors[2])
}

func TestCachedClient_DegradesOnGetError(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	inner := &countingEmbedder{}
	client := NewCachedClient(inner, kv, "test-model", time.Minute)

	vectors, err := client.CreateEmbeddings(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	// Cache trouble never fails the call; every text falls through to the
	// inner client.
	require.Len(t, inner.batches, 1)
	assert.Equal(t, []string{"one", "two"}, inner.batches[0])
}

func TestCachedClient_ReembedsUndecodableEntry(t *testing.T) {
	kv := newFakeKV()
	inner := &countingEmbedder{}
	client := NewCachedClient(inner, kv, "test-model", time.Minute).(*cachedClient)

	kv.data[client.key("one")] = []byte("not json")

	vectors, err := client.CreateEmbeddings(context.Background(), []string{"one"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, []float32{3, 1}, vectors[0])

	require.Len(t, inner.batches, 1)
	assert.Equal(t, []string{"one"}, inner.batches[0])
}

func TestCachedClient_SingleTextDelegatesToBatch(t *testing.T) {
	kv := newFakeKV()
	inner := &countingEmbedder{}
	client := NewCachedClient(inner, kv, "test-model", time.Minute)

	vec, err := client.CreateEmbedding(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, vec)
	assert.Equal(t, 1, kv.sets)
}
