package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domain-chat-go/internal/config"
)

func newEmbeddingServer(t *testing.T, vectors [][]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)

		type item struct {
			Embedding []float32 `json:"embedding"`
		}
		data := make([]item, len(vectors))
		for i, vec := range vectors {
			data[i] = item{Embedding: vec}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{"data": data}))
	}))
}

func TestCreateEmbeddings_Batch(t *testing.T) {
	srv := newEmbeddingServer(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}})
	defer srv.Close()

	client := NewClient(config.EmbeddingConfig{BaseURL: srv.URL, Model: "test-model"})
	vectors, err := client.CreateEmbeddings(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
}

func TestCreateEmbedding_Single(t *testing.T) {
	srv := newEmbeddingServer(t, [][]float32{{0.5, 0.6}})
	defer srv.Close()

	client := NewClient(config.EmbeddingConfig{BaseURL: srv.URL})
	vec, err := client.CreateEmbedding(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.6}, vec)
}

func TestCreateEmbeddings_CountMismatch(t *testing.T) {
	srv := newEmbeddingServer(t, [][]float32{{0.1}})
	defer srv.Close()

	client := NewClient(config.EmbeddingConfig{BaseURL: srv.URL})
	_, err := client.CreateEmbeddings(context.Background(), []string{"one", "two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 vectors for 2 inputs")
}

func TestCreateEmbeddings_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(config.EmbeddingConfig{BaseURL: srv.URL})
	_, err := client.CreateEmbeddings(context.Background(), []string{"one"})
	assert.Error(t, err)
}
