// Package openai talks to OpenAI and to any service exposing the same
// chat completions API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Rrens/parley/internal/llm"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
	temperature    = 0.7
	maxTokens      = 1024
)

// Options configure a chat completions provider
type Options struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
	Models  []string
	Timeout time.Duration
}

// Provider implements llm.Provider over a chat completions endpoint
type Provider struct {
	opts   Options
	client *http.Client
}

// New creates a provider from opts, filling OpenAI defaults
func New(opts Options) *Provider {
	if opts.Name == "" {
		opts.Name = "openai"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if len(opts.Models) == 0 {
		opts.Models = []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "gpt-3.5-turbo"}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Provider{opts: opts, client: &http.Client{Timeout: opts.Timeout}}
}

// NewProvider creates an OpenAI provider
func NewProvider(apiKey, defaultModel string) *Provider {
	return New(Options{APIKey: apiKey, Model: defaultModel})
}

// Factory builds an OpenAI provider from a user's settings. base_url lets
// a user point at a self-hosted compatible server.
func Factory(config map[string]any) (llm.Provider, error) {
	return New(Options{
		APIKey:  llm.ConfigString(config, "api_key"),
		Model:   llm.ConfigString(config, "model"),
		BaseURL: llm.ConfigString(config, "base_url"),
	}), nil
}

// WithBaseURL points the provider at another endpoint
func (p *Provider) WithBaseURL(url string) *Provider {
	p.opts.BaseURL = url
	return p
}

func (p *Provider) Name() string              { return p.opts.Name }
func (p *Provider) AvailableModels() []string { return p.opts.Models }
func (p *Provider) DefaultModel() string      { return p.opts.Model }
func (p *Provider) IsConfigured() bool        { return p.opts.APIKey != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// SuggestArguments asks the chat completions endpoint for suggestions
func (p *Provider) SuggestArguments(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	if model == "" {
		model = p.opts.Model
	}

	body := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: llm.SystemPrompt},
			{Role: "user", Content: llm.BuildPrompt(req)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	start := time.Now()
	var out chatResponse
	err := llm.PostJSON(ctx, p.client, p.opts.Name, p.opts.BaseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + p.opts.APIKey}, body, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", p.opts.Name)
	}

	return llm.NewResponse(p.opts.Name, model, out.Choices[0].Message.Content,
		out.Usage.TotalTokens, time.Since(start).Milliseconds())
}
