package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

type Config struct {
	Port            string
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBSSLMode       string
	AdminTokenHash  string
	EventBufferSize int
	LogLevel        slog.Level
}

// Load reads the configuration from the environment, falling back to
// defaults suitable for a local Postgres.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "5000"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "splits"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		AdminTokenHash: getEnv("ADMIN_TOKEN_HASH", ""),
	}

	size, err := strconv.Atoi(getEnv("EVENT_BUFFER_SIZE", "100"))
	if err != nil || size <= 0 {
		return nil, fmt.Errorf("invalid EVENT_BUFFER_SIZE %q: must be a positive integer", os.Getenv("EVENT_BUFFER_SIZE"))
	}
	cfg.EventBufferSize = size

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// DSN is the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
