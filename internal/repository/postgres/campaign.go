package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Rrens/parley/internal/domain"
)

// CampaignRepository handles campaign data access
type CampaignRepository struct {
	db *DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create creates a new campaign
func (r *CampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	query := `
		INSERT INTO campaigns (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		campaign.ID,
		campaign.Name,
		campaign.Description,
		campaign.CreatedAt,
		campaign.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// GetByID retrieves a campaign by ID
func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM campaigns
		WHERE id = $1
	`

	var campaign domain.Campaign
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&campaign.ID,
		&campaign.Name,
		&campaign.Description,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return &campaign, nil
}

// ListByUserID retrieves all campaigns a user belongs to
func (r *CampaignRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Campaign, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_at, c.updated_at
		FROM campaigns c
		INNER JOIN campaign_members cm ON c.id = cm.campaign_id
		WHERE cm.user_id = $1
		ORDER BY c.created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []domain.Campaign{}
	for rows.Next() {
		var campaign domain.Campaign
		if err := rows.Scan(
			&campaign.ID,
			&campaign.Name,
			&campaign.Description,
			&campaign.CreatedAt,
			&campaign.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	return campaigns, rows.Err()
}

// AddMember adds a member to a campaign or changes their role
func (r *CampaignRepository) AddMember(ctx context.Context, member *domain.CampaignMember) error {
	query := `
		INSERT INTO campaign_members (campaign_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (campaign_id, user_id) DO UPDATE SET role = $3
	`

	_, err := r.db.Pool.Exec(ctx, query,
		member.CampaignID,
		member.UserID,
		member.Role,
		member.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// GetMember retrieves a campaign member
func (r *CampaignRepository) GetMember(ctx context.Context, campaignID, userID uuid.UUID) (*domain.CampaignMember, error) {
	query := `
		SELECT campaign_id, user_id, role, created_at
		FROM campaign_members
		WHERE campaign_id = $1 AND user_id = $2
	`

	var member domain.CampaignMember
	err := r.db.Pool.QueryRow(ctx, query, campaignID, userID).Scan(
		&member.CampaignID,
		&member.UserID,
		&member.Role,
		&member.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return &member, nil
}
