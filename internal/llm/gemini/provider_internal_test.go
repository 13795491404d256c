package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/parley/internal/config"
	"github.com/Rrens/parley/internal/llm"
)

func TestCandidateText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(`[{"tier":1,`), genai.Text(`"description":"Bow"}]`)}},
	}}}
	text, err := candidateText(resp)
	require.NoError(t, err)

	suggestions, err := llm.ExtractSuggestions(text)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Bow", suggestions[0].Description)
}

func TestCandidateTextEmpty(t *testing.T) {
	_, err := candidateText(&genai.GenerateContentResponse{})
	assert.EqualError(t, err, "empty response from gemini")

	_, err = candidateText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}})
	assert.ErrorContains(t, err, "safety")
}

func TestUnconfigured(t *testing.T) {
	p := NewProvider(config.GeminiConfig{})
	assert.False(t, p.IsConfigured())
	assert.Equal(t, defaultModel, p.DefaultModel())

	_, err := p.SuggestArguments(context.Background(), llm.Request{}, "")
	assert.ErrorIs(t, err, llm.ErrProviderNotConfigured)

	fp, err := Factory(map[string]any{"api_key": "k", "model": "gemini-2.5-pro"})
	require.NoError(t, err)
	assert.True(t, fp.IsConfigured())
	assert.Equal(t, "gemini-2.5-pro", fp.DefaultModel())
}
