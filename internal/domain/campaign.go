package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Campaign groups the negotiations and narrative history of one table
type Campaign struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CampaignCreate represents campaign creation data
type CampaignCreate struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// CampaignMember represents campaign membership
type CampaignMember struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	UserID     uuid.UUID `json:"user_id"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// MemberAdd adds an existing user to a campaign
type MemberAdd struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=gm player"`
}

// Role constants
const (
	RoleOwner  = "owner"
	RoleGM     = "gm"
	RolePlayer = "player"
)

// CanRun reports whether the role may create and drive negotiations
func CanRun(role string) bool {
	return role == RoleOwner || role == RoleGM
}

// CampaignRepository defines the interface for campaign storage
type CampaignRepository interface {
	Create(ctx context.Context, campaign *Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*Campaign, error)
	AddMember(ctx context.Context, member *CampaignMember) error
	GetMember(ctx context.Context, campaignID, userID uuid.UUID) (*CampaignMember, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]Campaign, error)
}
