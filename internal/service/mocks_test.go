package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/llm"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) UpdateLLMConfig(ctx context.Context, id uuid.UUID, config map[string]any) error {
	args := m.Called(ctx, id, config)
	return args.Error(0)
}

// MockCampaignRepository mocks the CampaignRepository interface
type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	args := m.Called(ctx, campaign)
	return args.Error(0)
}

func (m *MockCampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) AddMember(ctx context.Context, member *domain.CampaignMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockCampaignRepository) GetMember(ctx context.Context, campaignID, userID uuid.UUID) (*domain.CampaignMember, error) {
	args := m.Called(ctx, campaignID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CampaignMember), args.Error(1)
}

func (m *MockCampaignRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Campaign, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Campaign), args.Error(1)
}

// MockNegotiationRepository mocks the NegotiationRepository interface
type MockNegotiationRepository struct {
	mock.Mock
}

func (m *MockNegotiationRepository) Create(ctx context.Context, n *domain.Negotiation) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNegotiationRepository) GetByID(ctx context.Context, id string) (*domain.Negotiation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Negotiation), args.Error(1)
}

func (m *MockNegotiationRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int, offset int) ([]domain.Negotiation, error) {
	args := m.Called(ctx, campaignID, limit, offset)
	return args.Get(0).([]domain.Negotiation), args.Error(1)
}

func (m *MockNegotiationRepository) Save(ctx context.Context, n *domain.Negotiation, persistedArguments int) error {
	args := m.Called(ctx, n, persistedArguments)
	return args.Error(0)
}

func (m *MockNegotiationRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockHistoryRepository mocks the HistoryRepository interface
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockHistoryRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, campaignID, limit)
	return args.Get(0).([]domain.HistoryEntry), args.Error(1)
}

// MockNegotiationCache mocks the NegotiationCache interface
type MockNegotiationCache struct {
	mock.Mock
}

func (m *MockNegotiationCache) Get(ctx context.Context, id string) (*domain.Negotiation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Negotiation), args.Error(1)
}

func (m *MockNegotiationCache) Set(ctx context.Context, n *domain.Negotiation, ttl time.Duration) error {
	args := m.Called(ctx, n, ttl)
	return args.Error(0)
}

func (m *MockNegotiationCache) Invalidate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLLMProvider mocks the llm.Provider interface
type MockLLMProvider struct {
	mock.Mock
}

func (m *MockLLMProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockLLMProvider) AvailableModels() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockLLMProvider) DefaultModel() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockLLMProvider) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockLLMProvider) SuggestArguments(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	args := m.Called(ctx, req, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// MockCredentialSource mocks the CredentialSource interface
type MockCredentialSource struct {
	mock.Mock
}

func (m *MockCredentialSource) ProviderConfig(ctx context.Context, userID uuid.UUID, provider string) (map[string]any, error) {
	args := m.Called(ctx, userID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}
