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

// NegotiationRepository implements domain.NegotiationRepository
type NegotiationRepository struct {
	s *Store
}

const negotiationColumns = `id, campaign_id, created_by, name, description, npc_name, status,
	interest, patience, patience_cap, opening_interest, opening_patience,
	motivations, pitfalls, outcome, created_at, updated_at, completed_at, version`

// Create inserts a new negotiation
func (r *NegotiationRepository) Create(ctx context.Context, n *domain.Negotiation) error {
	return r.Import(ctx, n, nil)
}

// Import inserts a negotiation together with its history entry, if any, in
// one transaction
func (r *NegotiationRepository) Import(ctx context.Context, n *domain.Negotiation, entry *domain.HistoryEntry) error {
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertNegotiation(ctx, tx, n); err != nil {
		return err
	}
	if entry != nil {
		if err := appendHistory(ctx, tx, r.s.insertIgnore(), entry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertNegotiation(ctx context.Context, tx *sql.Tx, n *domain.Negotiation) error {
	motivations, pitfalls, err := marshalTraits(n.Traits)
	if err != nil {
		return err
	}

	var createdBy sql.NullString
	if n.CreatedBy != nil {
		createdBy = sql.NullString{String: n.CreatedBy.String(), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO negotiations (`+negotiationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.CampaignID.String(),
		createdBy,
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
		toUnix(n.CreatedAt),
		toUnix(n.UpdatedAt),
		nullableUnix(n.CompletedAt),
		n.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrNegotiationConflict
		}
		return fmt.Errorf("insert negotiation: %w", err)
	}

	return insertArguments(ctx, tx, n.ID, n.Arguments, 0)
}

// GetByID retrieves a negotiation and its full ledger
func (r *NegotiationRepository) GetByID(ctx context.Context, id string) (*domain.Negotiation, error) {
	row := r.s.db.QueryRowContext(ctx, `SELECT `+negotiationColumns+` FROM negotiations WHERE id = ?`, id)
	n, err := scanNegotiation(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan negotiation: %w", err)
	}

	args, err := r.listArguments(ctx, id)
	if err != nil {
		return nil, err
	}
	n.Arguments = args

	return n, nil
}

// ListByCampaign retrieves negotiations for a campaign, newest first,
// without their ledgers
func (r *NegotiationRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int, offset int) ([]domain.Negotiation, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT `+negotiationColumns+`
		FROM negotiations
		WHERE campaign_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		campaignID.String(), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list negotiations: %w", err)
	}
	defer rows.Close()

	negotiations := []domain.Negotiation{}
	for rows.Next() {
		n, err := scanNegotiation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan negotiation: %w", err)
		}
		negotiations = append(negotiations, *n)
	}
	return negotiations, rows.Err()
}

// Save writes the session state and appends arguments beyond
// persistedArguments, provided the row is still at n.Version
func (r *NegotiationRepository) Save(ctx context.Context, n *domain.Negotiation, persistedArguments int) error {
	motivations, pitfalls, err := marshalTraits(n.Traits)
	if err != nil {
		return err
	}

	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE negotiations
		SET status = ?, interest = ?, patience = ?, motivations = ?, pitfalls = ?,
		    outcome = ?, updated_at = ?, completed_at = ?, version = version + 1
		WHERE id = ? AND version = ? AND status <> 'completed'`,
		string(n.Status),
		n.Counters.Interest,
		n.Counters.Patience,
		motivations,
		pitfalls,
		outcomeValue(n.Outcome),
		toUnix(n.UpdatedAt),
		nullableUnix(n.CompletedAt),
		n.ID,
		n.Version,
	)
	if err != nil {
		return fmt.Errorf("update negotiation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM negotiations WHERE id = ?`, n.ID).Scan(&status)
		if isNoRows(err) {
			return fmt.Errorf("negotiation %s not found", n.ID)
		}
		if err != nil {
			return fmt.Errorf("check negotiation: %w", err)
		}
		if status == string(negotiation.StatusCompleted) {
			return domain.ErrNegotiationFinalized
		}
		return domain.ErrNegotiationConflict
	}

	if err := insertArguments(ctx, tx, n.ID, n.Arguments, persistedArguments); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	n.Version++
	return nil
}

// Delete removes a negotiation that has not been completed
func (r *NegotiationRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM negotiations WHERE id = ? AND status <> 'completed'`, id)
	if err != nil {
		return fmt.Errorf("delete negotiation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNegotiationFinalized
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM negotiation_arguments WHERE negotiation_id = ?`, id); err != nil {
		return fmt.Errorf("delete arguments: %w", err)
	}

	return tx.Commit()
}

func (r *NegotiationRepository) listArguments(ctx context.Context, negotiationID string) (negotiation.Ledger, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT id, tier, description, motivation_type, interest_change, patience_change, created_at
		FROM negotiation_arguments
		WHERE negotiation_id = ?
		ORDER BY seq ASC`, negotiationID)
	if err != nil {
		return nil, fmt.Errorf("list arguments: %w", err)
	}
	defer rows.Close()

	ledger := negotiation.Ledger{}
	for rows.Next() {
		var a negotiation.Argument
		var motivationType sql.NullString
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.Tier, &a.Description, &motivationType,
			&a.InterestChange, &a.PatienceChange, &createdAt); err != nil {
			return nil, fmt.Errorf("scan argument: %w", err)
		}
		if motivationType.Valid {
			mt := negotiation.MotivationType(motivationType.String)
			a.MotivationType = &mt
		}
		a.CreatedAt = fromUnix(createdAt)
		ledger = append(ledger, a)
	}
	return ledger, rows.Err()
}

func insertArguments(ctx context.Context, tx *sql.Tx, negotiationID string, args negotiation.Ledger, from int) error {
	if from < 0 || from > len(args) {
		return fmt.Errorf("invalid ledger offset %d for %d arguments", from, len(args))
	}
	for i := from; i < len(args); i++ {
		a := args[i]
		var motivationType sql.NullString
		if a.MotivationType != nil {
			motivationType = sql.NullString{String: string(*a.MotivationType), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO negotiation_arguments
				(id, negotiation_id, seq, tier, description, motivation_type, interest_change, patience_change, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, negotiationID, i, a.Tier, a.Description, motivationType,
			a.InterestChange, a.PatienceChange, toUnix(a.CreatedAt),
		); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrNegotiationConflict
			}
			return fmt.Errorf("append argument: %w", err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNegotiation(row scanner) (*domain.Negotiation, error) {
	var n domain.Negotiation
	var campaignID, status, motivations, pitfalls string
	var createdBy, outcome sql.NullString
	var createdAt, updatedAt int64
	var completedAt sql.NullInt64
	var openingInterest, openingPatience int

	if err := row.Scan(
		&n.ID, &campaignID, &createdBy, &n.Name, &n.Description, &n.NPCName, &status,
		&n.Counters.Interest, &n.Counters.Patience, &n.Counters.PatienceCap,
		&openingInterest, &openingPatience,
		&motivations, &pitfalls, &outcome, &createdAt, &updatedAt, &completedAt, &n.Version,
	); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(campaignID)
	if err != nil {
		return nil, fmt.Errorf("parse campaign id: %w", err)
	}
	n.CampaignID = id
	if createdBy.Valid {
		uid, err := uuid.Parse(createdBy.String)
		if err != nil {
			return nil, fmt.Errorf("parse creator id: %w", err)
		}
		n.CreatedBy = &uid
	}

	n.Status = negotiation.Status(status)
	n.Opening = negotiation.Counters{
		Interest:    openingInterest,
		Patience:    openingPatience,
		PatienceCap: n.Counters.PatienceCap,
	}
	if outcome.Valid {
		o := negotiation.Outcome(outcome.String)
		n.Outcome = &o
	}
	n.CreatedAt = fromUnix(createdAt)
	n.UpdatedAt = fromUnix(updatedAt)
	if completedAt.Valid {
		t := fromUnix(completedAt.Int64)
		n.CompletedAt = &t
	}

	if err := json.Unmarshal([]byte(motivations), &n.Traits.Motivations); err != nil {
		return nil, fmt.Errorf("unmarshal motivations: %w", err)
	}
	if err := json.Unmarshal([]byte(pitfalls), &n.Traits.Pitfalls); err != nil {
		return nil, fmt.Errorf("unmarshal pitfalls: %w", err)
	}
	return &n, nil
}

func marshalTraits(traits negotiation.Traits) (string, string, error) {
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
		return "", "", fmt.Errorf("marshal motivations: %w", err)
	}
	p, err := json.Marshal(pitfalls)
	if err != nil {
		return "", "", fmt.Errorf("marshal pitfalls: %w", err)
	}
	return string(m), string(p), nil
}

func outcomeValue(o *negotiation.Outcome) sql.NullString {
	if o == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*o), Valid: true}
}
