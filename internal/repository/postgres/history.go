package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/negotiation"
)

// HistoryRepository is the campaign chronicle stored alongside negotiations
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append records a finished negotiation. Recording the same negotiation
// twice keeps the first entry.
func (r *HistoryRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	traits := entry.RevealedTraits
	if traits == nil {
		traits = []string{}
	}
	traitsJSON, err := json.Marshal(traits)
	if err != nil {
		return fmt.Errorf("failed to marshal revealed traits: %w", err)
	}

	query := `
		INSERT INTO campaign_history
			(id, campaign_id, negotiation_id, name, npc_name, description, outcome,
			 final_interest, final_patience, argument_count, revealed_traits, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (negotiation_id) DO NOTHING
	`

	_, err = r.db.Pool.Exec(ctx, query,
		entry.ID,
		entry.CampaignID,
		entry.NegotiationID,
		entry.Name,
		entry.NPCName,
		entry.Description,
		string(entry.Outcome),
		entry.FinalInterest,
		entry.FinalPatience,
		entry.ArgumentCount,
		traitsJSON,
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}

	return nil
}

// ListByCampaign retrieves the chronicle of a campaign, newest first
func (r *HistoryRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int) ([]domain.HistoryEntry, error) {
	query := `
		SELECT id, campaign_id, negotiation_id, name, npc_name, description, outcome,
		       final_interest, final_patience, argument_count, revealed_traits, occurred_at
		FROM campaign_history
		WHERE campaign_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var e domain.HistoryEntry
		var outcome string
		var traitsJSON []byte
		if err := rows.Scan(
			&e.ID,
			&e.CampaignID,
			&e.NegotiationID,
			&e.Name,
			&e.NPCName,
			&e.Description,
			&outcome,
			&e.FinalInterest,
			&e.FinalPatience,
			&e.ArgumentCount,
			&traitsJSON,
			&e.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.Outcome = negotiation.Outcome(outcome)
		if len(traitsJSON) > 0 {
			if err := json.Unmarshal(traitsJSON, &e.RevealedTraits); err != nil {
				return nil, fmt.Errorf("failed to unmarshal revealed traits: %w", err)
			}
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
