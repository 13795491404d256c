package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Rrens/parley/internal/negotiation"
)

// ErrNegotiationFinalized is returned when a write targets a completed negotiation
var ErrNegotiationFinalized = errors.New("negotiation is completed and read-only")

// ErrNegotiationConflict is returned when another write reached storage first
var ErrNegotiationConflict = errors.New("negotiation was changed by another request")

// Negotiation is a stored negotiation session scoped to a campaign
type Negotiation struct {
	CampaignID uuid.UUID  `json:"campaign_id"`
	CreatedBy  *uuid.UUID `json:"created_by,omitempty"`
	// Version counts saves. Save only succeeds against the version it loaded.
	Version int `json:"version"`
	negotiation.Session
}

// MotivationInput seeds a motivation
type MotivationInput struct {
	Type        string `json:"type" validate:"required,oneof=benevolence discovery freedom greed higher_authority justice legacy peace power protection reputation revelry vengeance wealth"`
	Description string `json:"description" validate:"omitempty,max=500"`
	Known       bool   `json:"known"`
}

// PitfallInput seeds a pitfall
type PitfallInput struct {
	Description string `json:"description" validate:"required,max=500"`
	Known       bool   `json:"known"`
}

// NegotiationCreate represents negotiation creation data
type NegotiationCreate struct {
	Name        string            `json:"name" validate:"required,max=255"`
	Description string            `json:"description" validate:"omitempty,max=2000"`
	NPCName     string            `json:"npc_name" validate:"required,max=255"`
	Interest    *int              `json:"interest,omitempty" validate:"omitempty,min=0,max=5"`
	Patience    *int              `json:"patience,omitempty" validate:"omitempty,min=1"`
	PatienceCap *int              `json:"patience_cap,omitempty" validate:"omitempty,min=1,max=20"`
	Motivations []MotivationInput `json:"motivations" validate:"dive"`
	Pitfalls    []PitfallInput    `json:"pitfalls" validate:"dive"`
}

// ArgumentCreate represents an argument made at the table with its resolved effect
type ArgumentCreate struct {
	Tier           int    `json:"tier" validate:"required,oneof=1 2 3"`
	Description    string `json:"description" validate:"omitempty,max=2000"`
	MotivationType string `json:"motivation_type" validate:"omitempty,max=50"`
	InterestChange int    `json:"interest_change" validate:"min=-5,max=5"`
	PatienceChange int    `json:"patience_change" validate:"min=-20,max=20"`
}

// SuggestionRequest asks the content assistant for argument ideas
type SuggestionRequest struct {
	Provider string `json:"provider" validate:"omitempty,oneof=openai anthropic ollama deepseek gemini"`
	Model    string `json:"model" validate:"omitempty,max=100"`
	Count    int    `json:"count" validate:"omitempty,min=1,max=10"`
	Hint     string `json:"hint" validate:"omitempty,max=1000"`
}

// TraitView is the rendering projection of an NPC's traits
type TraitView struct {
	KnownMotivations     []negotiation.Motivation `json:"known_motivations"`
	ConcealedMotivations int                      `json:"concealed_motivations"`
	KnownPitfalls        []negotiation.Pitfall    `json:"known_pitfalls"`
	ConcealedPitfalls    int                      `json:"concealed_pitfalls"`
}

// ArgumentApplied is returned after an argument is recorded
type ArgumentApplied struct {
	Argument          negotiation.Argument `json:"argument"`
	Counters          negotiation.Counters `json:"counters"`
	PatienceExhausted bool                 `json:"patience_exhausted"`
	Completed         bool                 `json:"completed"`
	Outcome           *negotiation.Outcome `json:"outcome,omitempty"`
}

// NegotiationRepository defines the interface for negotiation storage.
// Save persists the current state and appends only the ledger entries
// beyond persistedArguments. It fails with ErrNegotiationFinalized when
// the stored row is already completed.
type NegotiationRepository interface {
	Create(ctx context.Context, n *Negotiation) error
	GetByID(ctx context.Context, id string) (*Negotiation, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int, offset int) ([]Negotiation, error)
	Save(ctx context.Context, n *Negotiation, persistedArguments int) error
	Delete(ctx context.Context, id string) error
}

// NegotiationCache holds recently read negotiation snapshots
type NegotiationCache interface {
	Get(ctx context.Context, id string) (*Negotiation, error)
	Set(ctx context.Context, n *Negotiation, ttl time.Duration) error
	Invalidate(ctx context.Context, id string) error
}
