// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server settings,
// cache versioning, upstream API access, and storage paths.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the recipe proxy.
type Config struct {
	// Server
	Port            string        // just the number
	ReadTimeout     time.Duration // e.g. 15s
	WriteTimeout    time.Duration // e.g. 20s
	IdleTimeout     time.Duration // e.g. 60s
	ShutdownTimeout time.Duration // graceful shutdown grace period

	// Logging
	LogLevel  string // debug|info|warn|error
	LogPretty bool   // pretty console logs in dev

	// Cache core
	RedisAddr    string // host:port of the partition backend
	CachePrefix  string // partition namespace, e.g. "recipe-finder"
	CacheVersion string // active cache generation, e.g. "v2"
	ShellBaseURL string // origin the shell manifest is fetched from
	OfflinePath  string // offline fallback document path

	// Upstream API
	UpstreamBaseURL string        // TheMealDB-style API root
	UpstreamAPIKey  string        // API key path segment
	UpstreamTimeout time.Duration // per-request timeout
	MemoTTL         time.Duration // in-process response memo TTL

	// Favorites
	FavoritesDBPath string // SQLite path
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:            getenv("PORT", "8080"),
		ReadTimeout:     getdur("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:     getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getdur("SHUTDOWN_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// Cache core
		RedisAddr:    getenv("REDIS_ADDR", "localhost:6379"),
		CachePrefix:  getenv("CACHE_PREFIX", "recipe-finder"),
		CacheVersion: getenv("CACHE_VERSION", "v2"),
		ShellBaseURL: strings.TrimRight(getenv("SHELL_BASE_URL", "http://localhost:3000"), "/"),
		OfflinePath:  getenv("OFFLINE_PATH", "/offline.html"),

		// Upstream API
		UpstreamBaseURL: strings.TrimRight(getenv("UPSTREAM_BASE_URL", "https://www.themealdb.com/api/json/v1"), "/"),
		UpstreamAPIKey:  getenv("UPSTREAM_API_KEY", "1"),
		UpstreamTimeout: getdur("UPSTREAM_TIMEOUT", 10*time.Second),
		MemoTTL:         getdur("MEMO_TTL", 10*time.Minute),

		// Favorites
		FavoritesDBPath: getenv("FAVORITES_DB_PATH", "favorites.db"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.New("PORT must be numeric")
	}
	if c.CachePrefix == "" {
		return errors.New("CACHE_PREFIX must not be empty")
	}
	if strings.Contains(c.CachePrefix, "::") {
		return errors.New("CACHE_PREFIX must not contain '::'")
	}
	if c.CacheVersion == "" {
		return errors.New("CACHE_VERSION must not be empty")
	}
	if c.UpstreamBaseURL == "" {
		return errors.New("UPSTREAM_BASE_URL must not be empty")
	}
	if !strings.HasPrefix(c.OfflinePath, "/") {
		return errors.New("OFFLINE_PATH must start with '/'")
	}
	if c.MemoTTL < 0 {
		return errors.New("MEMO_TTL must not be negative")
	}
	return nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getdur(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
