package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	EnvAPIBaseURL, EnvSecondsMS, EnvHTTPTimeout, EnvJWTSecret, EnvAPIKey,
	EnvCacheDir, EnvCacheKeep, EnvLogFile, EnvDevNodeAddr,
}

// clearEnv unsets every chainview variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.APIBaseURL)
	assert.Equal(t, time.Second, cfg.Second)
	assert.Equal(t, 10*time.Second, cfg.PollInterval())
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Empty(t, cfg.JWTSecret)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"CHAINVIEW_API_BASE_URL=http://node:5001\nCHAINVIEW_SECONDS_MS=100\nCHAINVIEW_JWT_SECRET=s3cret\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://node:5001", cfg.APIBaseURL)
	assert.Equal(t, time.Second, cfg.PollInterval())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CHAINVIEW_API_BASE_URL=http://file:1\n"), 0o600))
	t.Setenv(EnvAPIBaseURL, "http://env:2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env:2", cfg.APIBaseURL)
}

func TestInvalidNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSecondsMS, "ten")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv(EnvSecondsMS, "0")
	_, err = FromEnv()
	assert.Error(t, err)
}
