package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_URL", "postgres://localhost:5432/mouthful")
	t.Setenv("ACCESS_TOKEN_SECRET", testSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15, cfg.AccessExpiryMin)
	assert.Equal(t, 30, cfg.RefreshExpiryDays)
	assert.Equal(t, "https://id.twitch.tv/oauth2/token", cfg.TwitchTokenURL)
	assert.Equal(t, "https://api.igdb.com/v4", cfg.IGDBBaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "5")
	t.Setenv("REFRESH_TOKEN_EXPIRY_DAYS", "7")
	t.Setenv("COOKIE_DOMAIN", "mouthful.app")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5, cfg.AccessExpiryMin)
	assert.Equal(t, 7, cfg.RefreshExpiryDays)
	assert.Equal(t, "mouthful.app", cfg.CookieDomain)
}

func TestLoad_MissingRequired(t *testing.T) {
	// t.Setenv registers the restore; unset so cleanenv sees the variable as absent.
	t.Setenv("DB_URL", "placeholder")
	os.Unsetenv("DB_URL")
	t.Setenv("ACCESS_TOKEN_SECRET", testSecret)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ShortSecret(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost:5432/mouthful")
	t.Setenv("ACCESS_TOKEN_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "ACCESS_TOKEN_SECRET"))
}
