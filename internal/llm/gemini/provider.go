// Package gemini drafts suggestions with Google's Gemini models through the
// generative-ai-go SDK, constraining output to the suggestion schema.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Rrens/parley/internal/config"
	"github.com/Rrens/parley/internal/llm"
)

const (
	name         = "gemini"
	defaultModel = "gemini-2.5-flash"
)

// suggestionSchema mirrors llm.Suggestion so the model returns a bare array
var suggestionSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"tier":            {Type: genai.TypeInteger, Description: "argument tier, 1 to 3"},
			"description":     {Type: genai.TypeString, Description: "what the party says or offers"},
			"motivation_type": {Type: genai.TypeString, Description: "known motivation appealed to, or empty"},
			"rationale":       {Type: genai.TypeString},
		},
		Required: []string{"tier", "description"},
	},
}

type Provider struct {
	apiKey string
	model  string
}

func NewProvider(cfg config.GeminiConfig) *Provider {
	return &Provider{apiKey: cfg.APIKey, model: cfg.Model}
}

// Factory builds a provider from per-user settings
func Factory(settings map[string]any) (llm.Provider, error) {
	return NewProvider(config.GeminiConfig{
		APIKey: llm.ConfigString(settings, "api_key"),
		Model:  llm.ConfigString(settings, "model"),
	}), nil
}

func (p *Provider) Name() string { return name }

func (p *Provider) AvailableModels() []string {
	return []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-1.5-flash"}
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return defaultModel
}

func (p *Provider) IsConfigured() bool { return p.apiKey != "" }

func (p *Provider) SuggestArguments(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	if !p.IsConfigured() {
		return nil, llm.ErrProviderNotConfigured
	}
	if model == "" {
		model = p.DefaultModel()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	gm := client.GenerativeModel(model)
	gm.SetTemperature(0.7)
	gm.SetMaxOutputTokens(1024)
	gm.SystemInstruction = genai.NewUserContent(genai.Text(llm.SystemPrompt))
	gm.ResponseMIMEType = "application/json"
	gm.ResponseSchema = suggestionSchema

	start := time.Now()
	resp, err := gm.GenerateContent(ctx, genai.Text(llm.BuildPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}
	latency := time.Since(start).Milliseconds()

	text, err := candidateText(resp)
	if err != nil {
		return nil, err
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return llm.NewResponse(name, model, text, tokens, latency)
}

// candidateText joins the text parts of the first candidate
func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("empty response from gemini")
	}
	c := resp.Candidates[0]
	if c.Content == nil || len(c.Content.Parts) == 0 {
		if c.FinishReason == genai.FinishReasonSafety {
			return "", errors.New("gemini blocked the response for safety")
		}
		return "", errors.New("empty response from gemini")
	}

	var out strings.Builder
	for _, part := range c.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}
	return out.String(), nil
}
