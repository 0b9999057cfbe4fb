package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "DATABASE_URL", "SQLITE_PATH", "JWT_SECRET", "REDIS_ADDR", "NOTIFY_QUEUE_SIZE", "STORE_MAX_RETRIES"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "pubgolf.db", cfg.SQLitePath)
	assert.Equal(t, 256, cfg.NotifyQueueSize)
	assert.Equal(t, 10, cfg.StoreMaxRetries)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("STORE_MAX_RETRIES", "3")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 3, cfg.StoreMaxRetries)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{Env: "development", SQLitePath: "x.db", NotifyQueueSize: 1, StoreMaxRetries: 1}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"production without secret", func(c *Config) { c.Env = "production" }, false},
		{"production with secret", func(c *Config) { c.Env = "production"; c.JWTSecret = "s" }, true},
		{"no database", func(c *Config) { c.SQLitePath = "" }, false},
		{"bad queue size", func(c *Config) { c.NotifyQueueSize = 0 }, false},
		{"bad retries", func(c *Config) { c.StoreMaxRetries = -1 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			if tc.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestNonNumericRejected(t *testing.T) {
	t.Setenv("NOTIFY_QUEUE_SIZE", "lots")
	cfg := Load()
	assert.Error(t, cfg.Validate())
}
