package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the reference auth server
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// Token signing
	Auth AuthConfig

	// HTTP listener
	HTTP HTTPConfig

	// SeedFile is an optional YAML file of users created at startup
	SeedFile string

	// Logging Configuration
	Logging LoggingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds token configuration
type AuthConfig struct {
	// JWTSecret signs tokens. When empty the server generates one and keeps
	// it in the database.
	JWTSecret string
	TokenTTL  time.Duration
}

// HTTPConfig holds listener configuration
type HTTPConfig struct {
	ListenAddr  string
	CORSOrigins []string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	tokenTTL := 24 * time.Hour
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", raw, err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: must be positive", raw)
		}
		tokenTTL = ttl
	}

	return &Config{
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "chitai-admin.sqlite"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  tokenTTL,
		},
		HTTP: HTTPConfig{
			ListenAddr:  getEnv("LISTEN_ADDR", ":3001"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		},
		SeedFile: os.Getenv("SEED_FILE"),
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
