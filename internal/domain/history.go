package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Rrens/parley/internal/negotiation"
)

// HistoryEntry is a campaign chronicle record of a finished negotiation
type HistoryEntry struct {
	ID             string              `json:"id"`
	CampaignID     uuid.UUID           `json:"campaign_id"`
	NegotiationID  string              `json:"negotiation_id"`
	Name           string              `json:"name"`
	NPCName        string              `json:"npc_name"`
	Description    string              `json:"description,omitempty"`
	Outcome        negotiation.Outcome `json:"outcome"`
	FinalInterest  int                 `json:"final_interest"`
	FinalPatience  int                 `json:"final_patience"`
	ArgumentCount  int                 `json:"argument_count"`
	RevealedTraits []string            `json:"revealed_traits,omitempty"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

// NewHistoryEntry summarises a completed negotiation
func NewHistoryEntry(id string, n *Negotiation) *HistoryEntry {
	entry := &HistoryEntry{
		ID:            id,
		CampaignID:    n.CampaignID,
		NegotiationID: n.ID,
		Name:          n.Name,
		NPCName:       n.NPCName,
		Description:   n.Description,
		FinalInterest: n.Counters.Interest,
		FinalPatience: n.Counters.Patience,
		ArgumentCount: len(n.Arguments),
	}
	if n.Outcome != nil {
		entry.Outcome = *n.Outcome
	}
	if n.CompletedAt != nil {
		entry.OccurredAt = *n.CompletedAt
	}
	for _, m := range n.Traits.KnownMotivations() {
		entry.RevealedTraits = append(entry.RevealedTraits, string(m.Type))
	}
	for _, p := range n.Traits.KnownPitfalls() {
		entry.RevealedTraits = append(entry.RevealedTraits, p.Description)
	}
	return entry
}

// HistoryRepository defines the interface for the narrative history store.
// Entries are immutable once appended.
type HistoryRepository interface {
	Append(ctx context.Context, entry *HistoryEntry) error
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int) ([]HistoryEntry, error)
}
