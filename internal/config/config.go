package config

import (
	"os"
	"strconv"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	AdminUser     string
	AdminPassword string

	DatabaseURL string

	ListenAddr string

	// InternalAPIKey authorizes the internal aggregation trigger endpoint.
	// If empty, the endpoint refuses all callers; the in-process scheduler
	// still runs.
	InternalAPIKey string

	// AggregateQueueSize bounds the pending aggregation task queue. Tasks
	// beyond the bound are dropped (the nightly run covers them).
	AggregateQueueSize int
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		AdminUser:          getenv("APP_ADMIN_USER", "admin"),
		AdminPassword:      getenv("APP_ADMIN_PASSWORD", "changeme"),
		DatabaseURL:        os.Getenv("APP_DATABASE_URL"),
		ListenAddr:         getenv("APP_LISTEN_ADDR", ":8080"),
		InternalAPIKey:     getenv("APP_INTERNAL_API_KEY", ""),
		AggregateQueueSize: 256,
	}

	if v := os.Getenv("APP_AGGREGATE_QUEUE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AggregateQueueSize = n
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
