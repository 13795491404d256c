package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/negotiation"
)

// HistoryRepository implements domain.HistoryRepository
type HistoryRepository struct {
	s *Store
}

// Append records a finished negotiation; a repeated negotiation id is ignored
func (r *HistoryRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	return appendHistory(ctx, r.s.db, r.s.insertIgnore(), entry)
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func appendHistory(ctx context.Context, db execer, insert string, entry *domain.HistoryEntry) error {
	traits := entry.RevealedTraits
	if traits == nil {
		traits = []string{}
	}
	traitsJSON, err := json.Marshal(traits)
	if err != nil {
		return fmt.Errorf("marshal revealed traits: %w", err)
	}

	_, err = db.ExecContext(ctx, insert+` INTO campaign_history
		(id, campaign_id, negotiation_id, name, npc_name, description, outcome,
		 final_interest, final_patience, argument_count, revealed_traits, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.CampaignID.String(),
		entry.NegotiationID,
		entry.Name,
		entry.NPCName,
		entry.Description,
		string(entry.Outcome),
		entry.FinalInterest,
		entry.FinalPatience,
		entry.ArgumentCount,
		string(traitsJSON),
		toUnix(entry.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ListByCampaign retrieves the chronicle of a campaign, newest first
func (r *HistoryRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int) ([]domain.HistoryEntry, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT id, negotiation_id, name, npc_name, description, outcome,
		       final_interest, final_patience, argument_count, revealed_traits, occurred_at
		FROM campaign_history
		WHERE campaign_id = ?
		ORDER BY occurred_at DESC
		LIMIT ?`, campaignID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		e := domain.HistoryEntry{CampaignID: campaignID}
		var outcome, traits string
		var occurredAt int64
		if err := rows.Scan(&e.ID, &e.NegotiationID, &e.Name, &e.NPCName, &e.Description, &outcome,
			&e.FinalInterest, &e.FinalPatience, &e.ArgumentCount, &traits, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Outcome = negotiation.Outcome(outcome)
		e.OccurredAt = fromUnix(occurredAt)
		if err := json.Unmarshal([]byte(traits), &e.RevealedTraits); err != nil {
			return nil, fmt.Errorf("unmarshal revealed traits: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
