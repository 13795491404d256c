package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/parley/internal/llm"
)

type stubProvider struct {
	name       string
	configured bool
	err        error
	gotModel   string
}

func (s *stubProvider) Name() string              { return s.name }
func (s *stubProvider) AvailableModels() []string { return []string{"m1"} }
func (s *stubProvider) DefaultModel() string      { return "m1" }
func (s *stubProvider) IsConfigured() bool        { return s.configured }
func (s *stubProvider) SuggestArguments(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	s.gotModel = model
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Suggestions: []llm.Suggestion{{Tier: 1, Description: req.NPCName}}}, nil
}

func TestRouterResolve(t *testing.T) {
	r := llm.NewRouter("ollama")
	r.Register("ollama", &stubProvider{name: "ollama", configured: true}, nil)
	r.Register("openai", &stubProvider{name: "openai"}, nil)
	r.Register("gemini", nil, nil)

	p, err := r.Resolve("", nil)
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	_, err = r.Resolve("openai", nil)
	assert.ErrorIs(t, err, llm.ErrProviderNotConfigured)

	_, err = r.Resolve("gemini", nil)
	assert.ErrorIs(t, err, llm.ErrProviderNotConfigured)

	_, err = r.Resolve("mystery", nil)
	assert.ErrorIs(t, err, llm.ErrUnknownProvider)

	assert.Equal(t, []string{"ollama"}, r.ListProviders())
	infos := r.GetProvidersInfo()
	require.Len(t, infos, 3)
	assert.Equal(t, "gemini", infos[0].Name)
	assert.Empty(t, infos[0].Models)
	assert.Equal(t, "ollama", infos[1].Name)
	assert.True(t, infos[1].Default)
	assert.True(t, infos[1].Configured)
}

func TestRouterUsesFactoryForUserConfig(t *testing.T) {
	r := llm.NewRouter("openai")
	r.Register("openai", &stubProvider{name: "openai"}, func(config map[string]any) (llm.Provider, error) {
		return &stubProvider{name: "openai", configured: llm.ConfigString(config, "api_key") != ""}, nil
	})

	p, err := r.Resolve("openai", map[string]any{"api_key": "sk-user"})
	require.NoError(t, err)
	assert.True(t, p.IsConfigured())

	// settings without a key fall back to the unconfigured shared provider
	_, err = r.Resolve("openai", map[string]any{"model": "x"})
	assert.ErrorIs(t, err, llm.ErrProviderNotConfigured)

	infos := r.GetProvidersInfo()
	require.Len(t, infos, 1)
	assert.True(t, infos[0].UserKeyable)
}

func TestRouterFactoryError(t *testing.T) {
	r := llm.NewRouter("openai")
	r.Register("openai", nil, func(map[string]any) (llm.Provider, error) {
		return nil, errors.New("bad settings")
	})

	_, err := r.Resolve("openai", map[string]any{"api_key": "x"})
	assert.ErrorContains(t, err, "bad settings")
}

func TestRouterSuggest(t *testing.T) {
	stub := &stubProvider{name: "ollama", configured: true}
	r := llm.NewRouter("ollama")
	r.Register("ollama", stub, nil)

	resp, err := r.Suggest(context.Background(), "", nil, llm.Request{NPCName: "Grub"}, "")
	require.NoError(t, err)
	assert.Equal(t, "m1", stub.gotModel)
	assert.Equal(t, "ollama", resp.Provider)
	assert.Equal(t, "m1", resp.Model)
	assert.Equal(t, "Grub", resp.Suggestions[0].Description)

	_, err = r.Suggest(context.Background(), "", nil, llm.Request{}, "big-model")
	require.NoError(t, err)
	assert.Equal(t, "big-model", stub.gotModel)

	stub.err = errors.New("timeout")
	_, err = r.Suggest(context.Background(), "", nil, llm.Request{}, "")
	assert.EqualError(t, err, "ollama: timeout")
}
