package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/parley/internal/api/middleware"
	"github.com/Rrens/parley/internal/security"
)

func okHandler(t *testing.T, wantUser uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := middleware.GetUserID(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantUser, got)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	jwt := security.NewJWTManager("test-secret-key-with-32-chars!!", time.Minute, time.Hour)
	userID := uuid.New()
	access, refresh, _, err := jwt.GenerateTokenPair(userID, "gm@example.com", nil)
	require.NoError(t, err)

	mw := middleware.NewAuthMiddleware(jwt).Authenticate(okHandler(t, userID))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized},
		{"valid", "Bearer " + access, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

type fakeLimiter struct {
	allowed   bool
	remaining int
	err       error
}

func (f fakeLimiter) Allow(context.Context, string) (bool, int, time.Time, error) {
	return f.allowed, f.remaining, time.Unix(1700000060, 0), f.err
}

func (f fakeLimiter) Limit() int { return 60 }

func TestRateLimit(t *testing.T) {
	userID := uuid.New()
	serve := func(l middleware.Limiter) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(middleware.WithUser(req.Context(), userID, "gm@example.com"))
		rec := httptest.NewRecorder()
		middleware.NewRateLimitMiddleware(l).Limit(okHandler(t, userID)).ServeHTTP(rec, req)
		return rec
	}

	rec := serve(fakeLimiter{allowed: true, remaining: 41})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "41", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1700000060", rec.Header().Get("X-RateLimit-Reset"))

	rec = serve(fakeLimiter{allowed: false})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	// the fake reset time is in the past
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = serve(fakeLimiter{err: errors.New("redis down")})
	assert.Equal(t, http.StatusOK, rec.Code)
}
