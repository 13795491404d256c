// Package deepseek configures the DeepSeek chat API, which speaks the
// OpenAI chat completions protocol.
package deepseek

import (
	"github.com/Rrens/parley/internal/llm"
	"github.com/Rrens/parley/internal/llm/openai"
)

const (
	name    = "deepseek"
	baseURL = "https://api.deepseek.com/v1"
)

// NewProvider creates a DeepSeek provider
func NewProvider(apiKey, defaultModel string) *openai.Provider {
	if defaultModel == "" {
		defaultModel = "deepseek-chat"
	}
	return openai.New(openai.Options{
		Name:    name,
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   defaultModel,
		Models:  []string{"deepseek-chat", "deepseek-reasoner"},
	})
}

// Factory builds a provider from per-user settings
func Factory(config map[string]any) (llm.Provider, error) {
	return NewProvider(llm.ConfigString(config, "api_key"), llm.ConfigString(config, "model")), nil
}
