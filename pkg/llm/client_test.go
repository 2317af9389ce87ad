package llm

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

func TestComplete(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"it depends on your plan"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.LLMConfig{
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		Model:     "test-model",
		MaxTokens: 150,
	})

	answer, err := client.Complete(context.Background(), "what is my fee")
	require.NoError(t, err)
	assert.Equal(t, "it depends on your plan", answer)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotBody["model"])
	assert.Equal(t, float64(150), gotBody["max_tokens"])
	messages := gotBody["messages"].([]interface{})
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]interface{})
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "what is my fee", msg["content"])
}

func TestComplete_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(config.LLMConfig{BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), "q")
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient(config.LLMConfig{BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), "q")
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestComplete_TransportError(t *testing.T) {
	client := NewClient(config.LLMConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Complete(context.Background(), "q")
	assert.ErrorIs(t, err, ErrGeneration)
}
