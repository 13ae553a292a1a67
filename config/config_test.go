package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodSecret = "k3P9wq7ZrT2mX8vB1nL5sD0fG4hJ6yUe"

func validConfig() Config {
	return Config{
		SessionSecret:   goodSecret,
		GuestSessionTTL: 4320 * time.Hour,
		AdminSessionTTL: 8 * time.Hour,
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", goodSecret)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "file:wedding.db?_foreign_keys=on", cfg.DB.DatabaseURL)
	assert.Equal(t, 4320*time.Hour, cfg.GuestSessionTTL)
	assert.Equal(t, 8*time.Hour, cfg.AdminSessionTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", goodSecret)
	t.Setenv("NODE_ENV", "production")
	t.Setenv("ADMIN_SESSION_TTL", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://boda.example,https://admin.boda.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.AdminSessionTTL)
	assert.Equal(t, []string{"https://boda.example", "https://admin.boda.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadDB_WithoutSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/boda")

	cfg, err := LoadDB()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/boda", cfg.DatabaseURL)
}

func TestLoad_SecretRequired(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.SessionSecret = "too-short"
	assert.ErrorIs(t, cfg.Validate(), ErrSecretTooShort)

	cfg = validConfig()
	cfg.SessionSecret = "your-secret-key-here-change-it-now"
	assert.ErrorIs(t, cfg.Validate(), ErrSecretIsDefault)

	placeholders := []string{
		strings.Repeat("changeme", 4),
		"your-super-secret-jwt-key-change-this-in-production",
		"changeme-changeme-changeme-changeme-changeme",
		"development-secret-key-at-least-32-characters-long",
		"Kx81vTq0LmZ4nR7wPa2sYd9fHc3jUe6b-changeme",
		strings.Repeat("a1b2", 10),
		strings.Repeat("x", 48),
		strings.Repeat("wedding_", 6),
	}
	for _, secret := range placeholders {
		cfg = validConfig()
		cfg.SessionSecret = secret
		assert.ErrorIs(t, cfg.Validate(), ErrSecretIsDefault, secret)
	}

	cfg = validConfig()
	cfg.AdminSessionTTL = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidTTL)
}

func TestNewLogger_FormatFollowsEnvironment(t *testing.T) {
	var buf bytes.Buffer
	cfg := validConfig()
	cfg.Environment = "production"
	newLogger(cfg, &buf).Info("hello", "k", "v")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))

	buf.Reset()
	cfg.Environment = "development"
	cfg.LogLevel = "warn"
	l := newLogger(cfg, &buf)
	l.Info("dropped")
	assert.Empty(t, buf.String())
	l.Warn("kept")
	assert.Contains(t, buf.String(), "msg=kept")

	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
}

func TestDialectorFor(t *testing.T) {
	_, driver := dialectorFor("postgres://u:p@localhost:5432/boda?sslmode=disable")
	assert.Equal(t, "postgres", driver)
	_, driver = dialectorFor("host=localhost user=u dbname=boda")
	assert.Equal(t, "postgres", driver)
	_, driver = dialectorFor("file:wedding.db?_foreign_keys=on")
	assert.Equal(t, "sqlite", driver)
}
