package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresProjectID(t *testing.T) {
	t.Setenv("FIRESTORE_PROJECT_ID", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()

	require.ErrorContains(t, err, "FIRESTORE_PROJECT_ID")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("FIRESTORE_PROJECT_ID", "stellar-test")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()

	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FIRESTORE_PROJECT_ID", "stellar-test")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()

	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 12*time.Second, cfg.Store.CallTimeout)
	require.Equal(t, 3, cfg.Store.MaxAttempts)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "development", cfg.Environment)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FIRESTORE_PROJECT_ID", "stellar-prod")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_TIMEOUT_SECONDS", "5")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()

	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 5*time.Second, cfg.Store.CallTimeout)
	require.Equal(t, "console", cfg.Logging.Format)
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")

	require.Equal(t, 8080, getEnvInt("SERVER_PORT", 8080))
}
