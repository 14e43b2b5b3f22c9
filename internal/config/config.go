// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Scoring service
	ScoringURL     string        // Base URL of the external fraud-scoring service
	ScoringTimeout time.Duration // 0 = no client-side timeout (matches source behavior)

	// Dashboard
	HistoryRecentLimit int // Entries shown in the recent-history panel

	// Security
	RateLimitRPM int
}

// Defaults
const (
	DefaultPort               = "8080"
	DefaultEnv                = "development"
	DefaultLogLevel           = "info"
	DefaultScoringURL         = "http://localhost:8000"
	DefaultHistoryRecentLimit = 10
	DefaultRateLimitRPM       = 60
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", DefaultPort),
		Env:                getEnv("ENV", DefaultEnv),
		LogLevel:           getEnv("LOG_LEVEL", DefaultLogLevel),
		ScoringURL:         getEnv("SCORING_URL", DefaultScoringURL),
		ScoringTimeout:     getEnvDuration("SCORING_TIMEOUT", 0),
		HistoryRecentLimit: int(getEnvInt64("HISTORY_RECENT_LIMIT", DefaultHistoryRecentLimit)),
		RateLimitRPM:       int(getEnvInt64("RATE_LIMIT_RPM", DefaultRateLimitRPM)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.ScoringURL == "" {
		return fmt.Errorf("SCORING_URL is required")
	}

	u, err := url.Parse(c.ScoringURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SCORING_URL must be an http(s) URL, got %q", c.ScoringURL)
	}

	if c.HistoryRecentLimit <= 0 {
		return fmt.Errorf("HISTORY_RECENT_LIMIT must be positive, got %d", c.HistoryRecentLimit)
	}

	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive, got %d", c.RateLimitRPM)
	}

	return nil
}

// IsProduction returns true in production environment
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv returns env var or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt64 returns env var as int64 or default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns env var as duration or default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
