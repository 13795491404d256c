package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/parley/internal/llm"
	"github.com/Rrens/parley/internal/llm/ollama"
)

func TestSuggestArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var body struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.False(t, body.Stream)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Contains(t, body.Messages[1].Content, "Old Mag")

		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{
				"role":    "assistant",
				"content": "```json\n[{\"tier\": 1, \"description\": \"Buy her a drink\"}]\n```",
			},
			"done":              true,
			"prompt_eval_count": 40,
			"eval_count":        17,
		})
	}))
	defer server.Close()

	p := ollama.NewProvider(server.URL+"/", "")
	resp, err := p.SuggestArguments(context.Background(), llm.Request{NPCName: "Old Mag"}, "")
	require.NoError(t, err)

	assert.Equal(t, "llama3", resp.Model)
	assert.Equal(t, 57, resp.TokensUsed)
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "Buy her a drink", resp.Suggestions[0].Description)
}

func TestServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := ollama.NewProvider(server.URL, "mystery").SuggestArguments(context.Background(), llm.Request{}, "")
	var statusErr *llm.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestUnconfigured(t *testing.T) {
	_, err := ollama.NewProvider("", "").SuggestArguments(context.Background(), llm.Request{}, "")
	assert.ErrorIs(t, err, llm.ErrProviderNotConfigured)
}
