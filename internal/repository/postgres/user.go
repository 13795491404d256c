package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Rrens/parley/internal/domain"
)

// UserRepository handles user data access
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	llmConfig, err := json.Marshal(nonNilConfig(user.LLMConfig))
	if err != nil {
		return fmt.Errorf("failed to marshal llm config: %w", err)
	}

	query := `
		INSERT INTO users (id, email, display_name, password_hash, llm_config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		llmConfig,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email = $1", email)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `
		SELECT id, email, display_name, password_hash, llm_config, created_at, updated_at
		FROM users
		WHERE ` + where

	var user domain.User
	var configJSON []byte

	err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&configJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &user.LLMConfig); err != nil {
			return nil, fmt.Errorf("failed to unmarshal llm config: %w", err)
		}
	}

	return &user, nil
}

// EmailExists checks whether an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// UpdateLLMConfig replaces a user's provider settings
func (r *UserRepository) UpdateLLMConfig(ctx context.Context, id uuid.UUID, config map[string]any) error {
	data, err := json.Marshal(nonNilConfig(config))
	if err != nil {
		return fmt.Errorf("failed to marshal llm config: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx,
		`UPDATE users SET llm_config = $2, updated_at = NOW() WHERE id = $1`,
		id, data,
	)
	if err != nil {
		return fmt.Errorf("failed to update llm config: %w", err)
	}
	return nil
}

func nonNilConfig(config map[string]any) map[string]any {
	if config == nil {
		return map[string]any{}
	}
	return config
}
