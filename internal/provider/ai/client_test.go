package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		content, _ := json.Marshal(map[string]any{
			"categorizations": []Categorization{
				{Ref: "e1", Category: "Groceries"},
				{Ref: "e2", Category: "Transport"},
			},
		})
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": string(content)}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model", time.Second)

	got, err := client.Categorize(context.Background(), []Item{
		{Ref: "e1", Description: "WHOLE FOODS MARKET"},
		{Ref: "e2", Description: "UBER TRIP"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Groceries", got[0].Category)
	assert.Equal(t, "e2", got[1].Ref)
}

func TestCategorizeBatchLimit(t *testing.T) {
	client := NewClient("http://unused", "key", "", time.Second)

	items := make([]Item, maxBatchSize+1)
	for i := range items {
		items[i] = Item{Ref: "e", Description: "x"}
	}

	got, err := client.Categorize(context.Background(), items)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrTooManyItems)
}

func TestCategorizeEmptyBatch(t *testing.T) {
	client := NewClient("http://unused", "key", "", time.Second)

	got, err := client.Categorize(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCategorizeProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "", time.Second)

	_, err := client.Categorize(context.Background(), []Item{{Ref: "e1", Description: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}
