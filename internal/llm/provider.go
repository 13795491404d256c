package llm

import "context"

// Trait is a revealed NPC trait shown to the model
type Trait struct {
	Type        string
	Description string
	TimesUsed   int
}

// PastArgument is a ledger entry shown to the model
type PastArgument struct {
	Tier           int
	Description    string
	MotivationType string
	InterestChange int
	PatienceChange int
}

// Request contains everything the model may know about a negotiation.
// Concealed traits are only ever passed as counts.
type Request struct {
	SessionName          string
	Description          string
	NPCName              string
	Interest             int
	Patience             int
	PatienceCap          int
	KnownMotivations     []Trait
	KnownPitfalls        []string
	ConcealedMotivations int
	ConcealedPitfalls    int
	RecentArguments      []PastArgument
	Count                int
	Hint                 string
}

// Suggestion is a proposed argument. It carries no counter deltas; the
// table decides the effect when the argument is actually made.
type Suggestion struct {
	Tier           int    `json:"tier"`
	Description    string `json:"description"`
	MotivationType string `json:"motivation_type,omitempty"`
	Rationale      string `json:"rationale,omitempty"`
}

// Response contains LLM generation result
type Response struct {
	Suggestions []Suggestion `json:"suggestions"`
	Raw         string       `json:"-"`
	Model       string       `json:"model"`
	Provider    string       `json:"provider"`
	TokensUsed  int          `json:"tokens_used"`
	LatencyMs   int64        `json:"latency_ms"`
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// SuggestArguments proposes arguments the party could make next
	SuggestArguments(ctx context.Context, req Request, model string) (*Response, error)
}

// ProviderFactory creates a provider from per-user settings
type ProviderFactory func(config map[string]any) (Provider, error)

// ConfigString reads a string setting from a per-user config map
func ConfigString(config map[string]any, key string) string {
	if v, ok := config[key].(string); ok {
		return v
	}
	return ""
}
