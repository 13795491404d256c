package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a game master or player account
type User struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	DisplayName  string         `json:"display_name"`
	PasswordHash string         `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	LLMConfig    map[string]any `json:"-"`
}

// UserCreate represents user registration data
type UserCreate struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair represents JWT token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LLMProviderSettings is a user's own credentials for one provider
type LLMProviderSettings struct {
	Provider string `json:"provider" validate:"required,oneof=openai anthropic ollama deepseek gemini"`
	APIKey   string `json:"api_key" validate:"omitempty,max=512"`
	Model    string `json:"model" validate:"omitempty,max=100"`
	BaseURL  string `json:"base_url" validate:"omitempty,url"`
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLLMConfig(ctx context.Context, id uuid.UUID, config map[string]any) error
}
