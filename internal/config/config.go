// Package config handles loading and validating runtime configuration for the Pub Golf API.
// Configuration values (database location, JWT secret, Redis address, retry budget) are read
// from environment variables rather than being hardcoded, so the same binary runs in
// development, staging and production with only the environment swapped.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	// godotenv reads a .env file and loads its key=value pairs into the process environment.
	// In production, real env vars are used instead.
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port        string // The TCP port the HTTP server will listen on (e.g., "8080")
	Env         string // "development", "staging", or "production"
	DatabaseURL string // PostgreSQL connection string; when empty SQLitePath is used instead
	SQLitePath  string // Local sqlite file used for development without Postgres
	JWTSecret   string // HS256 secret used to verify bearer tokens
	LogLevel    string // zerolog level name: debug, info, warn, error

	RedisAddr     string // host:port of the Redis instance used for notifications; empty disables Redis
	RedisPassword string
	RedisDB       int

	NotifyQueueSize int // Depth of the buffered notification queue
	StoreMaxRetries int // How many times a conflicting compare-and-swap is retried before giving up
}

// Load reads configuration from environment variables and returns a populated Config.
// A missing .env file is fine: the deployment platform sets real environment variables.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:            getenv("PORT", "8080"),
		Env:             getenv("ENV", "development"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SQLitePath:      getenv("SQLITE_PATH", "pubgolf.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getenvInt("REDIS_DB", 0),
		NotifyQueueSize: getenvInt("NOTIFY_QUEUE_SIZE", 256),
		StoreMaxRetries: getenvInt("STORE_MAX_RETRIES", 10),
	}
}

// IsProduction reports whether the server is running with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks the settings that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.DatabaseURL == "" && c.SQLitePath == "" {
		return errors.New("one of DATABASE_URL or SQLITE_PATH must be set")
	}
	if c.NotifyQueueSize <= 0 {
		return fmt.Errorf("NOTIFY_QUEUE_SIZE must be positive, got %d", c.NotifyQueueSize)
	}
	if c.StoreMaxRetries <= 0 {
		return fmt.Errorf("STORE_MAX_RETRIES must be positive, got %d", c.StoreMaxRetries)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getenvInt falls back to the default when the variable is unset. A value that is not a
// number becomes -1 so Validate reports it instead of silently using the default.
func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
