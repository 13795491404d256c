package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Rrens/parley/internal/domain"
)

const defaultHistoryLimit = 50

// CampaignService handles campaign operations
type CampaignService struct {
	campaignRepo domain.CampaignRepository
	userRepo     domain.UserRepository
	historyRepo  domain.HistoryRepository
}

// NewCampaignService creates a new campaign service
func NewCampaignService(
	campaignRepo domain.CampaignRepository,
	userRepo domain.UserRepository,
	historyRepo domain.HistoryRepository,
) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		historyRepo:  historyRepo,
	}
}

// Create creates a new campaign and adds the creator as owner
func (s *CampaignService) Create(ctx context.Context, userID uuid.UUID, input domain.CampaignCreate) (*domain.Campaign, error) {
	now := time.Now().UTC()
	campaign := &domain.Campaign{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	member := &domain.CampaignMember{
		CampaignID: campaign.ID,
		UserID:     userID,
		Role:       domain.RoleOwner,
		CreatedAt:  now,
	}
	if err := s.campaignRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return campaign, nil
}

// GetByID retrieves a campaign by ID with access check
func (s *CampaignService) GetByID(ctx context.Context, userID, campaignID uuid.UUID) (*domain.Campaign, error) {
	if _, err := requireMember(ctx, s.campaignRepo, campaignID, userID); err != nil {
		return nil, err
	}

	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	return campaign, nil
}

// ListByUser retrieves all campaigns for a user
func (s *CampaignService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Campaign, error) {
	campaigns, err := s.campaignRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// AddMember adds an existing user to a campaign (owner or gm only)
func (s *CampaignService) AddMember(ctx context.Context, userID, campaignID uuid.UUID, input domain.MemberAdd) (*domain.CampaignMember, error) {
	if _, err := requireRunner(ctx, s.campaignRepo, campaignID, userID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.campaignRepo.GetMember(ctx, campaignID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	member := &domain.CampaignMember{
		CampaignID: campaignID,
		UserID:     user.ID,
		Role:       input.Role,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.campaignRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return member, nil
}

// History lists the narrative record of completed negotiations, newest first
func (s *CampaignService) History(ctx context.Context, userID, campaignID uuid.UUID, limit int) ([]domain.HistoryEntry, error) {
	if _, err := requireMember(ctx, s.campaignRepo, campaignID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = defaultHistoryLimit
	}

	entries, err := s.historyRepo.ListByCampaign(ctx, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

func requireMember(ctx context.Context, repo domain.CampaignRepository, campaignID, userID uuid.UUID) (*domain.CampaignMember, error) {
	member, err := repo.GetMember(ctx, campaignID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return nil, ErrAccessDenied
	}
	return member, nil
}

func requireRunner(ctx context.Context, repo domain.CampaignRepository, campaignID, userID uuid.UUID) (*domain.CampaignMember, error) {
	member, err := requireMember(ctx, repo, campaignID, userID)
	if err != nil {
		return nil, err
	}
	if !domain.CanRun(member.Role) {
		return nil, ErrAccessDenied
	}
	return member, nil
}
