package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/parley/internal/config"
	"github.com/Rrens/parley/internal/logger"
)

func TestSetupLevel(t *testing.T) {
	closer, err := logger.Setup(config.LoggingConfig{Level: "warn", Format: "json"}, "production")
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestSetupFallsBackToInfo(t *testing.T) {
	closer, err := logger.Setup(config.LoggingConfig{Level: "chatty"}, "production")
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestSetupWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.log")
	closer, err := logger.Setup(config.LoggingConfig{Level: "info", Format: "json", File: path}, "production")
	require.NoError(t, err)

	log.Info().Str("negotiation_id", "n-1").Msg("negotiation started")
	require.NoError(t, closer.Close())

	matches, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	content, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "negotiation started")
}
