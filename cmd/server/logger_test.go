package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dkeye/fastcall/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerWritesFile(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "app.log")
	closer, err := setupLogger(&config.Config{Mode: "release", LogLevel: "warn", LogFile: path})
	require.NoError(t, err)

	log.Info().Msg("filtered out")
	log.Warn().Str("module", "test").Msg("kept")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"kept"`)
	assert.NotContains(t, string(data), "filtered out")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestSetupLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := setupLogger(&config.Config{LogLevel: "loud"})
	assert.Error(t, err)
}
