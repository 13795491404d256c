package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/security"
)

func newAuthService(t *testing.T) (*AuthService, *MockUserRepository, *MockCampaignRepository) {
	t.Helper()

	encryptor, err := security.NewEncryptorFromSecret("test encryption passphrase")
	require.NoError(t, err)

	users := new(MockUserRepository)
	campaigns := new(MockCampaignRepository)
	jwt := security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute, time.Hour)
	return NewAuthService(users, campaigns, jwt, encryptor), users, campaigns
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, users, _ := newAuthService(t)
		users.On("EmailExists", ctx, "gm@example.com").Return(false, nil).Once()
		users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil).Once()

		user, err := svc.Register(ctx, domain.UserCreate{Email: " GM@example.com ", Password: "hunter22"})
		require.NoError(t, err)
		assert.Equal(t, "gm@example.com", user.Email)
		assert.True(t, security.CheckPassword(user.PasswordHash, "hunter22"))
		users.AssertExpectations(t)
	})

	t.Run("email taken", func(t *testing.T) {
		svc, users, _ := newAuthService(t)
		users.On("EmailExists", ctx, "gm@example.com").Return(true, nil).Once()

		_, err := svc.Register(ctx, domain.UserCreate{Email: "gm@example.com", Password: "hunter22"})
		assert.ErrorIs(t, err, ErrEmailTaken)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := security.HashPassword("hunter22")
	require.NoError(t, err)
	user := &domain.User{ID: uuid.New(), Email: "gm@example.com", PasswordHash: hash}

	t.Run("success issues usable tokens", func(t *testing.T) {
		svc, users, campaigns := newAuthService(t)
		users.On("GetByEmail", ctx, "gm@example.com").Return(user, nil).Once()
		campaigns.On("ListByUserID", ctx, user.ID).Return([]domain.Campaign{{ID: uuid.New()}}, nil)
		users.On("GetByID", ctx, user.ID).Return(user, nil).Once()

		pair, err := svc.Login(ctx, domain.UserLogin{Email: "gm@example.com", Password: "hunter22"})
		require.NoError(t, err)
		assert.Equal(t, int64(900), pair.ExpiresIn)

		refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, users, _ := newAuthService(t)
		users.On("GetByEmail", ctx, "gm@example.com").Return(user, nil).Once()

		_, err := svc.Login(ctx, domain.UserLogin{Email: "gm@example.com", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, users, _ := newAuthService(t)
		users.On("GetByEmail", ctx, "who@example.com").Return(nil, nil).Once()

		_, err := svc.Login(ctx, domain.UserLogin{Email: "who@example.com", Password: "hunter22"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		svc, users, campaigns := newAuthService(t)
		users.On("GetByEmail", ctx, "gm@example.com").Return(user, nil).Once()
		campaigns.On("ListByUserID", ctx, user.ID).Return([]domain.Campaign{}, nil)

		pair, err := svc.Login(ctx, domain.UserLogin{Email: "gm@example.com", Password: "hunter22"})
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuthService_LLMConfig(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newAuthService(t)
	user := &domain.User{ID: uuid.New(), Email: "gm@example.com", LLMConfig: map[string]any{}}

	users.On("GetByID", ctx, user.ID).Return(user, nil)
	users.On("UpdateLLMConfig", ctx, user.ID, mock.Anything).
		Run(func(args mock.Arguments) { user.LLMConfig = args.Get(2).(map[string]any) }).
		Return(nil).Once()

	err := svc.UpdateLLMConfig(ctx, user.ID, domain.LLMProviderSettings{
		Provider: "openai",
		APIKey:   "sk-user-key",
		Model:    "gpt-4o",
	})
	require.NoError(t, err)

	stored := user.LLMConfig["openai"].(map[string]any)
	assert.NotContains(t, stored, "api_key")
	assert.NotEqual(t, "sk-user-key", stored[encryptedKeyField])

	config, err := svc.ProviderConfig(ctx, user.ID, "openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-user-key", config["api_key"])
	assert.Equal(t, "gpt-4o", config["model"])

	config, err = svc.ProviderConfig(ctx, user.ID, "anthropic")
	require.NoError(t, err)
	assert.Nil(t, config)

	// a sealed key moved to another provider's slot does not open
	user.LLMConfig["anthropic"] = map[string]any{encryptedKeyField: stored[encryptedKeyField]}
	_, err = svc.ProviderConfig(ctx, user.ID, "anthropic")
	assert.ErrorIs(t, err, security.ErrDecrypt)
}
