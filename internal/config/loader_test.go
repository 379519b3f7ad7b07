package config_test

import (
	"path/filepath"
	"testing"

	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/leighmacdonald/tf-sentry/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoaderWriteRead(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "tf-sentry.yaml")

	writer := config.NewLoader(make(chan config.Config, 1))
	writer.SetConfigFile(configPath)
	require.NoError(t, writer.Write(config.Config{
		SteamID:         steamid.New("[U:1:1]"),
		SteamAPIKey:     "abc123",
		SteamHistoryKey: "def456",
		UpdateFreqMs:    500,
		MaxInFlight:     8,
		PatternFile:     "patterns.txt",
	}))

	reader := config.NewLoader(make(chan config.Config, 1))
	reader.SetConfigFile(configPath)
	loaded, errRead := reader.Read()
	require.NoError(t, errRead)
	require.True(t, loaded.SteamID.Valid())
	require.Equal(t, "abc123", loaded.SteamAPIKey)
	require.Equal(t, "def456", loaded.SteamHistoryKey)
	require.Equal(t, 500, loaded.UpdateFreqMs)
	require.Equal(t, 8, loaded.MaxInFlight)
	require.Equal(t, "patterns.txt", loaded.PatternFile)
}
