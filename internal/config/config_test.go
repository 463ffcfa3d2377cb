package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_SECRET_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "mailer@example.com")
	t.Setenv("SMTP_PASS", "smtp-secret")
	t.Setenv("FACEBOOK_ID", "fb-app-id")
	t.Setenv("FACEBOOK_SECRET", "fb-app-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, TokenBackendPaseto, cfg.Auth.TokenBackend)
	assert.Equal(t, 15*24*time.Hour, cfg.Auth.BearerTokenDuration)
	assert.Equal(t, "mailer@example.com", cfg.Email.FromEmail, "from defaults to the SMTP user")
	assert.Equal(t, "http://localhost:8080/auth/facebook/callback", cfg.OAuth.FacebookCallbackURL)
}

func TestLoadRejectsShortSecretKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_SECRET_KEY", "too-short")

	_, err := Load()
	assert.ErrorContains(t, err, "AUTH_SECRET_KEY")
}

func TestLoadRejectsUnknownTokenBackend(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_TOKEN_BACKEND", "hs512")

	_, err := Load()
	assert.ErrorContains(t, err, "AUTH_TOKEN_BACKEND")
}

func TestLoadAcceptsJWTBackend(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_TOKEN_BACKEND", "jwt")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, TokenBackendJWT, cfg.Auth.TokenBackend)
}

func TestLoadRequiresSMTP(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMTP_HOST", "")

	_, err := Load()
	assert.ErrorContains(t, err, "SMTP_HOST")
}

func TestLoadRequiresFacebookCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FACEBOOK_ID", "")

	_, err := Load()
	assert.ErrorContains(t, err, "FACEBOOK_ID")
}

func TestTrustedOriginsParsing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRUSTED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.TrustedOrigins)
}

func TestConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: "5432", User: "app", Password: "secret", DBName: "starter", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=app password=secret dbname=starter sslmode=disable",
		cfg.ConnectionString(),
	)
}

func TestRedisAddress(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: "6379"}
	assert.Equal(t, "cache:6379", cfg.Address())
}
