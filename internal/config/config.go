package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Email    EmailConfig
	OAuth    OAuthConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins for cookie auth
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Token backends for the API bearer credential
const (
	TokenBackendPaseto = "paseto"
	TokenBackendJWT    = "jwt"
)

type AuthConfig struct {
	// Signing secret for bearer credentials (must be 32 bytes)
	SecretKey []byte
	// TokenBackend selects the credential format: "paseto" or "jwt"
	TokenBackend string
	// BearerTokenDuration is how long an issued credential stays valid
	BearerTokenDuration time.Duration
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromEmail    string
	// AppBaseURL is the externally visible base URL used in emailed links
	AppBaseURL string
}

type OAuthConfig struct {
	FacebookID          string
	FacebookSecret      string
	FacebookCallbackURL string
}

// Load reads configuration from environment variables.
// A .env file is honored if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "starter"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			SecretKey:           []byte(getEnv("AUTH_SECRET_KEY", "")),
			TokenBackend:        getEnv("AUTH_TOKEN_BACKEND", TokenBackendPaseto),
			BearerTokenDuration: getDurationEnv("BEARER_TOKEN_DURATION", 15*24*time.Hour),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASS", ""),
			FromEmail:    getEnv("SMTP_FROM", ""),
			AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),
		},
		OAuth: OAuthConfig{
			FacebookID:          getEnv("FACEBOOK_ID", ""),
			FacebookSecret:      getEnv("FACEBOOK_SECRET", ""),
			FacebookCallbackURL: getEnv("FACEBOOK_CALLBACK_URL", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces the startup-time configuration contract: missing secrets
// fail here, never during request handling.
func (c *Config) validate() error {
	if len(c.Auth.SecretKey) != 32 {
		return fmt.Errorf("AUTH_SECRET_KEY must be exactly 32 bytes, got %d", len(c.Auth.SecretKey))
	}
	switch c.Auth.TokenBackend {
	case TokenBackendPaseto, TokenBackendJWT:
	default:
		return fmt.Errorf("AUTH_TOKEN_BACKEND must be %q or %q, got %q",
			TokenBackendPaseto, TokenBackendJWT, c.Auth.TokenBackend)
	}
	if c.Email.SMTPHost == "" || c.Email.SMTPUser == "" || c.Email.SMTPPassword == "" {
		return fmt.Errorf("SMTP_HOST, SMTP_USER and SMTP_PASS are required")
	}
	if c.Email.FromEmail == "" {
		c.Email.FromEmail = c.Email.SMTPUser
	}
	if c.OAuth.FacebookID == "" || c.OAuth.FacebookSecret == "" {
		return fmt.Errorf("FACEBOOK_ID and FACEBOOK_SECRET are required")
	}
	if c.OAuth.FacebookCallbackURL == "" {
		c.OAuth.FacebookCallbackURL = c.Email.AppBaseURL + "/auth/facebook/callback"
	}
	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
