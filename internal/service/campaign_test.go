package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/parley/internal/domain"
)

func TestCampaignService_Create(t *testing.T) {
	ctx := context.Background()
	campaigns := new(MockCampaignRepository)
	svc := NewCampaignService(campaigns, new(MockUserRepository), new(MockHistoryRepository))
	userID := uuid.New()

	campaigns.On("Create", ctx, mock.AnythingOfType("*domain.Campaign")).Return(nil).Once()
	campaigns.On("AddMember", ctx, mock.MatchedBy(func(m *domain.CampaignMember) bool {
		return m.UserID == userID && m.Role == domain.RoleOwner
	})).Return(nil).Once()

	campaign, err := svc.Create(ctx, userID, domain.CampaignCreate{Name: "  The Drowned Crown "})
	require.NoError(t, err)
	assert.Equal(t, "The Drowned Crown", campaign.Name)
	campaigns.AssertExpectations(t)
}

func TestCampaignService_AddMember(t *testing.T) {
	ctx := context.Background()
	campaignID := uuid.New()
	owner := uuid.New()
	player := uuid.New()
	invitee := &domain.User{ID: uuid.New(), Email: "rogue@example.com"}

	setup := func() (*CampaignService, *MockCampaignRepository, *MockUserRepository) {
		campaigns := new(MockCampaignRepository)
		users := new(MockUserRepository)
		campaigns.On("GetMember", ctx, campaignID, owner).Return(&domain.CampaignMember{Role: domain.RoleOwner}, nil).Maybe()
		campaigns.On("GetMember", ctx, campaignID, player).Return(&domain.CampaignMember{Role: domain.RolePlayer}, nil).Maybe()
		return NewCampaignService(campaigns, users, new(MockHistoryRepository)), campaigns, users
	}

	t.Run("owner adds player", func(t *testing.T) {
		svc, campaigns, users := setup()
		users.On("GetByEmail", ctx, "rogue@example.com").Return(invitee, nil).Once()
		campaigns.On("GetMember", ctx, campaignID, invitee.ID).Return(nil, nil).Once()
		campaigns.On("AddMember", ctx, mock.AnythingOfType("*domain.CampaignMember")).Return(nil).Once()

		member, err := svc.AddMember(ctx, owner, campaignID, domain.MemberAdd{Email: "Rogue@example.com", Role: domain.RolePlayer})
		require.NoError(t, err)
		assert.Equal(t, invitee.ID, member.UserID)
		assert.Equal(t, domain.RolePlayer, member.Role)
	})

	t.Run("players cannot invite", func(t *testing.T) {
		svc, _, users := setup()

		_, err := svc.AddMember(ctx, player, campaignID, domain.MemberAdd{Email: "rogue@example.com", Role: domain.RolePlayer})
		assert.ErrorIs(t, err, ErrAccessDenied)
		users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _, users := setup()
		users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, nil).Once()

		_, err := svc.AddMember(ctx, owner, campaignID, domain.MemberAdd{Email: "ghost@example.com", Role: domain.RoleGM})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("already member", func(t *testing.T) {
		svc, campaigns, users := setup()
		users.On("GetByEmail", ctx, "rogue@example.com").Return(invitee, nil).Once()
		campaigns.On("GetMember", ctx, campaignID, invitee.ID).Return(&domain.CampaignMember{Role: domain.RolePlayer}, nil).Once()

		_, err := svc.AddMember(ctx, owner, campaignID, domain.MemberAdd{Email: "rogue@example.com", Role: domain.RolePlayer})
		assert.ErrorIs(t, err, ErrAlreadyMember)
	})
}

func TestCampaignService_History(t *testing.T) {
	ctx := context.Background()
	campaignID := uuid.New()
	member := uuid.New()

	campaigns := new(MockCampaignRepository)
	history := new(MockHistoryRepository)
	svc := NewCampaignService(campaigns, new(MockUserRepository), history)

	campaigns.On("GetMember", ctx, campaignID, member).Return(&domain.CampaignMember{Role: domain.RolePlayer}, nil)
	campaigns.On("GetMember", ctx, campaignID, mock.Anything).Return(nil, nil)
	history.On("ListByCampaign", ctx, campaignID, defaultHistoryLimit).
		Return([]domain.HistoryEntry{{NegotiationID: "n-1"}}, nil).Once()

	entries, err := svc.History(ctx, member, campaignID, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = svc.History(ctx, uuid.New(), campaignID, 10)
	assert.ErrorIs(t, err, ErrAccessDenied)
}
