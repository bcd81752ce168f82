package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("XMLTV_BASE_URL", "http://feeds.example.com")
	// Run from an empty directory so no stray .env is picked up.
	chdir(t, t.TempDir())

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingDatabaseURL)
}

func TestLoadRequiresBaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/epg")
	t.Setenv("XMLTV_BASE_URL", "")
	chdir(t, t.TempDir())

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingBaseURL)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/epg")
	t.Setenv("XMLTV_BASE_URL", "http://feeds.example.com")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("FETCHER_USER_AGENT", "")
	t.Setenv("FETCHER_TIMEOUT", "")
	t.Setenv("TONIGHT_MIN_DURATION", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "EPGVault/1.0", cfg.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.TonightMinDuration)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/epg")
	t.Setenv("XMLTV_BASE_URL", "http://feeds.example.com")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("FETCHER_TIMEOUT", "2m")
	t.Setenv("TONIGHT_MIN_DURATION", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, time.Hour, cfg.TonightMinDuration)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url: postgres://localhost/epg
xmltv_base_url: http://feeds.example.com
server_port: "3000"
tonight_min_duration: 60m
`), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/epg", cfg.DatabaseURL)
	assert.Equal(t, "http://feeds.example.com", cfg.XMLTVBaseURL)
	assert.Equal(t, "3000", cfg.ServerPort)
	assert.Equal(t, time.Hour, cfg.TonightMinDuration)
}

func TestLoadFromFileMissingDatabaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("xmltv_base_url: http://x\n"), 0o600))

	_, err := LoadFromFile(path)
	assert.ErrorIs(t, err, ErrMissingDatabaseURL)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
