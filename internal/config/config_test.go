package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/parley/internal/config"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Negotiation.DefaultInterest)
	assert.Equal(t, 4, cfg.Negotiation.DefaultPatience)
	assert.Equal(t, 5, cfg.Negotiation.DefaultPatienceCap)
	assert.Equal(t, 10*time.Minute, cfg.Negotiation.CacheTTL)
	assert.Equal(t, "sqlite", cfg.Local.Driver)
	assert.Equal(t, "parley:", cfg.Redis.KeyPrefix)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
negotiation:
  default_patience: 6
  default_patience_cap: 8
  history_backend: mongo
local:
  driver: mysql
  dsn: "parley:parley@tcp(localhost:3306)/parley?parseTime=true"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Negotiation.DefaultPatience)
	assert.Equal(t, "mongo", cfg.Negotiation.HistoryBackend)
	assert.Equal(t, "mysql", cfg.Local.Driver)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestValidateRejectsBadDefaults(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"patience above cap", "negotiation:\n  default_patience: 9\n"},
		{"interest off track", "negotiation:\n  default_interest: 7\n"},
		{"unknown history backend", "negotiation:\n  history_backend: kafka\n"},
		{"unknown local driver", "local:\n  driver: oracle\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))

			_, err := config.LoadFile(path)
			assert.Error(t, err)
		})
	}
}
