package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/negotiation"
)

// NegotiationRepository stores negotiation sessions with their ledger in a
// separate insert-only table
type NegotiationRepository struct {
	db *DB
}

// NewNegotiationRepository creates a new negotiation repository
func NewNegotiationRepository(db *DB) *NegotiationRepository {
	return &NegotiationRepository{db: db}
}

const negotiationColumns = `
	id, campaign_id, created_by, name, description, npc_name, status,
	interest, patience, patience_cap, opening_interest, opening_patience,
	motivations, pitfalls, outcome, created_at, updated_at, completed_at, version
`

// Create inserts a new negotiation
func (r *NegotiationRepository) Create(ctx context.Context, n *domain.Negotiation) error {
	motivations, pitfalls, err := marshalTraits(n.Traits)
	if err != nil {
		return err
	}

	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO negotiations (` + negotiationColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		`
		_, err := tx.Exec(ctx, query,
			n.ID,
			n.CampaignID,
			n.CreatedBy,
			n.Name,
			n.Description,
			n.NPCName,
			string(n.Status),
			n.Counters.Interest,
			n.Counters.Patience,
			n.Counters.PatienceCap,
			n.Opening.Interest,
			n.Opening.Patience,
			motivations,
			pitfalls,
			outcomeValue(n.Outcome),
			n.CreatedAt,
			n.UpdatedAt,
			n.CompletedAt,
			n.Version,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrNegotiationConflict
			}
			return fmt.Errorf("failed to create negotiation: %w", err)
		}

		return insertArguments(ctx, tx, n.ID, n.Arguments, 0)
	})
}

// GetByID retrieves a negotiation and its full ledger
func (r *NegotiationRepository) GetByID(ctx context.Context, id string) (*domain.Negotiation, error) {
	query := `SELECT ` + negotiationColumns + ` FROM negotiations WHERE id = $1`

	n, err := scanNegotiation(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get negotiation: %w", err)
	}

	args, err := r.listArguments(ctx, id)
	if err != nil {
		return nil, err
	}
	n.Arguments = args

	return n, nil
}

// ListByCampaign retrieves negotiations for a campaign, newest first. The
// ledger is not loaded; use GetByID for a full session.
func (r *NegotiationRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int, offset int) ([]domain.Negotiation, error) {
	query := `SELECT ` + negotiationColumns + `
		FROM negotiations
		WHERE campaign_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, campaignID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list negotiations: %w", err)
	}
	defer rows.Close()

	negotiations := []domain.Negotiation{}
	for rows.Next() {
		n, err := scanNegotiation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan negotiation: %w", err)
		}
		negotiations = append(negotiations, *n)
	}

	return negotiations, rows.Err()
}

// Save writes the session state and appends arguments beyond
// persistedArguments. The row must still be at n.Version; a newer save by
// another writer yields domain.ErrNegotiationConflict.
func (r *NegotiationRepository) Save(ctx context.Context, n *domain.Negotiation, persistedArguments int) error {
	motivations, pitfalls, err := marshalTraits(n.Traits)
	if err != nil {
		return err
	}

	err = r.db.InTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE negotiations
			SET status = $3,
			    interest = $4,
			    patience = $5,
			    motivations = $6,
			    pitfalls = $7,
			    outcome = $8,
			    updated_at = $9,
			    completed_at = $10,
			    version = version + 1
			WHERE id = $1 AND version = $2 AND status <> 'completed'
		`
		tag, err := tx.Exec(ctx, query,
			n.ID,
			n.Version,
			string(n.Status),
			n.Counters.Interest,
			n.Counters.Patience,
			motivations,
			pitfalls,
			outcomeValue(n.Outcome),
			n.UpdatedAt,
			n.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save negotiation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return r.staleSave(ctx, tx, n.ID)
		}

		return insertArguments(ctx, tx, n.ID, n.Arguments, persistedArguments)
	})
	if err != nil {
		return err
	}
	n.Version++
	return nil
}

// staleSave explains why a guarded update touched no row
func (r *NegotiationRepository) staleSave(ctx context.Context, tx pgx.Tx, id string) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM negotiations WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("negotiation %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("failed to check negotiation: %w", err)
	}
	if status == string(negotiation.StatusCompleted) {
		return domain.ErrNegotiationFinalized
	}
	return domain.ErrNegotiationConflict
}

// Delete deletes a negotiation that has not been completed
func (r *NegotiationRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM negotiations WHERE id = $1 AND status <> 'completed'`, id)
	if err != nil {
		return fmt.Errorf("failed to delete negotiation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNegotiationFinalized
	}
	return nil
}

func (r *NegotiationRepository) listArguments(ctx context.Context, negotiationID string) (negotiation.Ledger, error) {
	query := `
		SELECT id, tier, description, motivation_type, interest_change, patience_change, created_at
		FROM negotiation_arguments
		WHERE negotiation_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, negotiationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list arguments: %w", err)
	}
	defer rows.Close()

	ledger := negotiation.Ledger{}
	for rows.Next() {
		var a negotiation.Argument
		var motivationType *string
		if err := rows.Scan(
			&a.ID,
			&a.Tier,
			&a.Description,
			&motivationType,
			&a.InterestChange,
			&a.PatienceChange,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan argument: %w", err)
		}
		if motivationType != nil {
			mt := negotiation.MotivationType(*motivationType)
			a.MotivationType = &mt
		}
		ledger = append(ledger, a)
	}

	return ledger, rows.Err()
}

func insertArguments(ctx context.Context, tx pgx.Tx, negotiationID string, args negotiation.Ledger, from int) error {
	if from < 0 || from > len(args) {
		return fmt.Errorf("invalid ledger offset %d for %d arguments", from, len(args))
	}

	query := `
		INSERT INTO negotiation_arguments
			(id, negotiation_id, seq, tier, description, motivation_type, interest_change, patience_change, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for i := from; i < len(args); i++ {
		a := args[i]
		var motivationType *string
		if a.MotivationType != nil {
			s := string(*a.MotivationType)
			motivationType = &s
		}
		if _, err := tx.Exec(ctx, query,
			a.ID,
			negotiationID,
			i,
			a.Tier,
			a.Description,
			motivationType,
			a.InterestChange,
			a.PatienceChange,
			a.CreatedAt,
		); err != nil {
			// another writer already took this ledger position
			if isUniqueViolation(err) {
				return domain.ErrNegotiationConflict
			}
			return fmt.Errorf("failed to append argument: %w", err)
		}
	}
	return nil
}

func scanNegotiation(row pgx.Row) (*domain.Negotiation, error) {
	var n domain.Negotiation
	var status string
	var outcome *string
	var openingInterest, openingPatience int
	var motivationsJSON, pitfallsJSON []byte
	var completedAt *time.Time

	if err := row.Scan(
		&n.ID,
		&n.CampaignID,
		&n.CreatedBy,
		&n.Name,
		&n.Description,
		&n.NPCName,
		&status,
		&n.Counters.Interest,
		&n.Counters.Patience,
		&n.Counters.PatienceCap,
		&openingInterest,
		&openingPatience,
		&motivationsJSON,
		&pitfallsJSON,
		&outcome,
		&n.CreatedAt,
		&n.UpdatedAt,
		&completedAt,
		&n.Version,
	); err != nil {
		return nil, err
	}

	n.Status = negotiation.Status(status)
	n.Opening = negotiation.Counters{
		Interest:    openingInterest,
		Patience:    openingPatience,
		PatienceCap: n.Counters.PatienceCap,
	}
	if outcome != nil {
		o := negotiation.Outcome(*outcome)
		n.Outcome = &o
	}
	n.CompletedAt = completedAt

	if err := json.Unmarshal(motivationsJSON, &n.Traits.Motivations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal motivations: %w", err)
	}
	if err := json.Unmarshal(pitfallsJSON, &n.Traits.Pitfalls); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pitfalls: %w", err)
	}

	return &n, nil
}

func marshalTraits(traits negotiation.Traits) ([]byte, []byte, error) {
	motivations := traits.Motivations
	if motivations == nil {
		motivations = []negotiation.Motivation{}
	}
	pitfalls := traits.Pitfalls
	if pitfalls == nil {
		pitfalls = []negotiation.Pitfall{}
	}

	m, err := json.Marshal(motivations)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal motivations: %w", err)
	}
	p, err := json.Marshal(pitfalls)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal pitfalls: %w", err)
	}
	return m, p, nil
}

func outcomeValue(o *negotiation.Outcome) *string {
	if o == nil {
		return nil
	}
	s := string(*o)
	return &s
}
