package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/security"
)

const encryptedKeyField = "api_key_enc"

// AuthService handles authentication and per-user provider credentials
type AuthService struct {
	userRepo     domain.UserRepository
	campaignRepo domain.CampaignRepository
	jwtManager   *security.JWTManager
	encryptor    *security.Encryptor
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	campaignRepo domain.CampaignRepository,
	jwtManager *security.JWTManager,
	encryptor *security.Encryptor,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		campaignRepo: campaignRepo,
		jwtManager:   jwtManager,
		encryptor:    encryptor,
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, input domain.UserCreate) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input domain.UserLogin) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(user.PasswordHash, input.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// Refresh exchanges a refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	campaigns, err := s.campaignRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	campaignIDs := make([]uuid.UUID, len(campaigns))
	for i, c := range campaigns {
		campaignIDs[i] = c.ID
	}

	access, refresh, expiresIn, err := s.jwtManager.GenerateTokenPair(user.ID, user.Email, campaignIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
	}, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateLLMConfig stores a user's own settings for one provider. The API key
// is sealed before it reaches the database.
func (s *AuthService) UpdateLLMConfig(ctx context.Context, userID uuid.UUID, settings domain.LLMProviderSettings) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	entry := map[string]any{}
	if settings.Model != "" {
		entry["model"] = settings.Model
	}
	if settings.BaseURL != "" {
		entry["base_url"] = settings.BaseURL
	}
	if settings.APIKey != "" {
		sealed, err := s.encryptor.SealString(settings.APIKey, userID.String(), settings.Provider)
		if err != nil {
			return fmt.Errorf("failed to encrypt api key: %w", err)
		}
		entry[encryptedKeyField] = sealed
	}

	config := make(map[string]any, len(user.LLMConfig)+1)
	for k, v := range user.LLMConfig {
		config[k] = v
	}
	config[settings.Provider] = entry

	if err := s.userRepo.UpdateLLMConfig(ctx, userID, config); err != nil {
		return fmt.Errorf("failed to update llm config: %w", err)
	}
	return nil
}

// ProviderConfig returns the decrypted per-user settings for a provider, or
// nil when the user has none
func (s *AuthService) ProviderConfig(ctx context.Context, userID uuid.UUID, provider string) (map[string]any, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stored, ok := user.LLMConfig[provider].(map[string]any)
	if !ok {
		return nil, nil
	}

	config := make(map[string]any, len(stored))
	for k, v := range stored {
		if k == encryptedKeyField {
			continue
		}
		config[k] = v
	}
	if sealed, ok := stored[encryptedKeyField].(string); ok && sealed != "" {
		key, err := s.encryptor.OpenString(sealed, userID.String(), provider)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt api key: %w", err)
		}
		config["api_key"] = key
	}
	return config, nil
}
