package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Rrens/parley/internal/api/middleware"
	"github.com/Rrens/parley/internal/api/response"
	"github.com/Rrens/parley/internal/domain"
)

// AuthService is the account surface used by AuthHandler
type AuthService interface {
	Register(ctx context.Context, input domain.UserCreate) (*domain.User, error)
	Login(ctx context.Context, input domain.UserLogin) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	UpdateLLMConfig(ctx context.Context, userID uuid.UUID, settings domain.LLMProviderSettings) error
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if !bind(w, r, &input, false) {
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, map[string]any{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if !bind(w, r, &input, false) {
		return
	}

	tokens, err := h.authService.Login(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, tokens)
}

// Refresh handles token refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input domain.RefreshRequest
	if !bind(w, r, &input, false) {
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, tokens)
}

// Me returns the current authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	providers := make([]string, 0, len(user.LLMConfig))
	for name := range user.LLMConfig {
		providers = append(providers, name)
	}

	response.OK(w, map[string]any{
		"user":              user,
		"llm_providers_set": providers,
	})
}

// UpdateLLMConfig stores the caller's own credentials for one provider
func (h *AuthHandler) UpdateLLMConfig(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.LLMProviderSettings
	if !bind(w, r, &input, false) {
		return
	}

	if err := h.authService.UpdateLLMConfig(r.Context(), userID, input); err != nil {
		writeError(w, r, err)
		return
	}

	response.NoContent(w)
}
