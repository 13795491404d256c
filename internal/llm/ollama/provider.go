// Package ollama drafts suggestions against a self-hosted Ollama server.
package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Rrens/parley/internal/llm"
)

const fallbackModel = "llama3"

type Provider struct {
	host   string
	model  string
	client *http.Client
}

// NewProvider returns a provider for the server at host. Local models are
// slow on first load, hence the long client timeout.
func NewProvider(host, model string) *Provider {
	if model == "" {
		model = fallbackModel
	}
	return &Provider{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Factory builds a provider from per-user settings
func Factory(settings map[string]any) (llm.Provider, error) {
	return NewProvider(llm.ConfigString(settings, "base_url"), llm.ConfigString(settings, "model")), nil
}

func (p *Provider) Name() string         { return "ollama" }
func (p *Provider) DefaultModel() string { return p.model }
func (p *Provider) IsConfigured() bool   { return p.host != "" }

func (p *Provider) AvailableModels() []string {
	return []string{fallbackModel, "llama3.1", "mistral", "qwen2.5", "gemma2"}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message         chatMessage `json:"message"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

func (p *Provider) SuggestArguments(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	if !p.IsConfigured() {
		return nil, llm.ErrProviderNotConfigured
	}
	if model == "" {
		model = p.model
	}

	start := time.Now()
	var out chatResponse
	err := llm.PostJSON(ctx, p.client, p.Name(), p.host+"/api/chat", nil, chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: llm.SystemPrompt},
			{Role: "user", Content: llm.BuildPrompt(req)},
		},
		Options: map[string]any{"temperature": 0.7},
	}, &out)
	if err != nil {
		return nil, err
	}

	tokens := out.PromptEvalCount + out.EvalCount
	return llm.NewResponse(p.Name(), model, out.Message.Content, tokens, time.Since(start).Milliseconds())
}
