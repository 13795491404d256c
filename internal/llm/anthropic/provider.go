// Package anthropic drafts suggestions through the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Rrens/parley/internal/llm"
)

const (
	apiVersion   = "2023-06-01"
	defaultModel = "claude-3-5-haiku-latest"
	maxTokens    = 1024

	// the assistant turn is prefilled so the reply continues a JSON array
	prefill = "["
)

type Provider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewProvider(apiKey, model string) *Provider {
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.anthropic.com/v1",
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

// Factory builds a provider from per-user settings
func Factory(settings map[string]any) (llm.Provider, error) {
	p := NewProvider(llm.ConfigString(settings, "api_key"), llm.ConfigString(settings, "model"))
	if base := llm.ConfigString(settings, "base_url"); base != "" {
		p = p.WithBaseURL(base)
	}
	return p, nil
}

// WithBaseURL points the provider at a proxy or test server
func (p *Provider) WithBaseURL(baseURL string) *Provider {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

func (p *Provider) Name() string         { return "anthropic" }
func (p *Provider) DefaultModel() string { return p.model }
func (p *Provider) IsConfigured() bool   { return p.apiKey != "" }

func (p *Provider) AvailableModels() []string {
	return []string{"claude-3-5-haiku-latest", "claude-3-5-sonnet-latest", "claude-3-7-sonnet-latest"}
}

type turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	System      string  `json:"system,omitempty"`
	Temperature float64 `json:"temperature"`
	Messages    []turn  `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (p *Provider) SuggestArguments(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	if !p.IsConfigured() {
		return nil, llm.ErrProviderNotConfigured
	}
	if model == "" {
		model = p.model
	}

	start := time.Now()
	var out messagesResponse
	headers := map[string]string{"x-api-key": p.apiKey, "anthropic-version": apiVersion}
	err := llm.PostJSON(ctx, p.client, p.Name(), p.baseURL+"/messages", headers, messagesRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      llm.SystemPrompt,
		Temperature: 0.7,
		Messages: []turn{
			{Role: "user", Content: llm.BuildPrompt(req)},
			{Role: "assistant", Content: prefill},
		},
	}, &out)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("anthropic returned no text (stop reason %q)", out.StopReason)
	}
	if out.StopReason == "max_tokens" {
		return nil, fmt.Errorf("anthropic reply was cut off after %d tokens", maxTokens)
	}

	tokens := out.Usage.InputTokens + out.Usage.OutputTokens
	return llm.NewResponse(p.Name(), model, prefill+text.String(), tokens, time.Since(start).Milliseconds())
}
