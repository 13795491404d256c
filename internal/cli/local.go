package cli

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Rrens/parley/internal/domain"
)

var (
	localNamespace = uuid.MustParse("6f1c2b9e-4d8a-5e37-9a0c-3b1f7d2e8c45")
	localGM        = uuid.NewSHA1(localNamespace, []byte("game-master"))
)

// campaignID derives a stable campaign id from a local campaign name
func campaignID(name string) uuid.UUID {
	return uuid.NewSHA1(localNamespace, []byte("campaign:"+name))
}

// localCampaigns is a single-table campaign store in which the local user
// runs every negotiation
type localCampaigns struct {
	campaign domain.Campaign
}

func newLocalCampaigns(name string) *localCampaigns {
	return &localCampaigns{campaign: domain.Campaign{
		ID:   campaignID(name),
		Name: name,
	}}
}

var errLocalCampaign = errors.New("campaign membership is not managed locally")

func (l *localCampaigns) Create(context.Context, *domain.Campaign) error {
	return errLocalCampaign
}

func (l *localCampaigns) AddMember(context.Context, *domain.CampaignMember) error {
	return errLocalCampaign
}

func (l *localCampaigns) GetByID(_ context.Context, id uuid.UUID) (*domain.Campaign, error) {
	if id != l.campaign.ID {
		return nil, nil
	}
	c := l.campaign
	return &c, nil
}

func (l *localCampaigns) GetMember(_ context.Context, campaignID, userID uuid.UUID) (*domain.CampaignMember, error) {
	if campaignID != l.campaign.ID || userID != localGM {
		return nil, nil
	}
	return &domain.CampaignMember{
		CampaignID: campaignID,
		UserID:     userID,
		Role:       domain.RoleOwner,
	}, nil
}

func (l *localCampaigns) ListByUserID(_ context.Context, userID uuid.UUID) ([]domain.Campaign, error) {
	if userID != localGM {
		return []domain.Campaign{}, nil
	}
	return []domain.Campaign{l.campaign}, nil
}
