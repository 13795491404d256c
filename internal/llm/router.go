package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownProvider is returned for a provider name nobody registered
	ErrUnknownProvider = errors.New("unknown llm provider")
	// ErrProviderNotConfigured is returned when neither the server nor the
	// user supplied credentials for the provider
	ErrProviderNotConfigured = errors.New("llm provider is not configured")
)

type entry struct {
	shared  Provider
	factory ProviderFactory
}

// Router picks the provider that drafts argument suggestions. Each name
// has an optional server-wide instance and an optional factory that builds
// one from a user's own settings.
type Router struct {
	mu              sync.RWMutex
	entries         map[string]entry
	defaultProvider string
}

// NewRouter creates an empty router
func NewRouter(defaultProvider string) *Router {
	return &Router{
		entries:         make(map[string]entry),
		defaultProvider: defaultProvider,
	}
}

// Register adds a provider under name. Either argument may be nil.
func (r *Router) Register(name string, shared Provider, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{shared: shared, factory: factory}
}

// Resolve returns the provider for name, preferring one built from the
// user's settings. An empty name selects the default provider.
func (r *Router) Resolve(name string, userConfig map[string]any) (Provider, error) {
	if name == "" {
		name = r.defaultProvider
	}

	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}

	if len(userConfig) > 0 && e.factory != nil {
		p, err := e.factory(userConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build provider %s: %w", name, err)
		}
		if p.IsConfigured() {
			return p, nil
		}
	}

	if e.shared == nil || !e.shared.IsConfigured() {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, name)
	}
	return e.shared, nil
}

// Suggest resolves a provider and asks it for suggestions. An empty model
// selects the provider's default.
func (r *Router) Suggest(ctx context.Context, name string, userConfig map[string]any, req Request, model string) (*Response, error) {
	p, err := r.Resolve(name, userConfig)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = p.DefaultModel()
	}

	resp, err := p.SuggestArguments(ctx, req, model)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name(), err)
	}
	if resp.Provider == "" {
		resp.Provider = p.Name()
	}
	if resp.Model == "" {
		resp.Model = model
	}
	return resp, nil
}

// ListProviders returns the sorted names usable without user settings
func (r *Router) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := []string{}
	for name, e := range r.entries {
		if e.shared != nil && e.shared.IsConfigured() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// DefaultProvider returns the default provider name
func (r *Router) DefaultProvider() string {
	return r.defaultProvider
}

// ProviderInfo describes a registered provider
type ProviderInfo struct {
	Name        string   `json:"name"`
	Models      []string `json:"models"`
	Default     bool     `json:"default"`
	Configured  bool     `json:"configured"`
	UserKeyable bool     `json:"user_keyable"`
}

// GetProvidersInfo describes every registered provider, sorted by name
func (r *Router) GetProvidersInfo() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.entries))
	for name, e := range r.entries {
		info := ProviderInfo{
			Name:        name,
			Models:      []string{},
			Default:     name == r.defaultProvider,
			UserKeyable: e.factory != nil,
		}
		if e.shared != nil {
			info.Models = e.shared.AvailableModels()
			info.Configured = e.shared.IsConfigured()
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
