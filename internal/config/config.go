// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// CacheBackend identifies which cache store implementation to use.
type CacheBackend string

const (
	// BackendSQLite stores cache entries in a local SQLite table (default).
	BackendSQLite CacheBackend = "sqlite"
	// BackendRedis stores cache entries in Redis with native TTLs.
	BackendRedis CacheBackend = "redis"
	// BackendMemory keeps cache entries in process memory (dev/testing).
	BackendMemory CacheBackend = "memory"
)

// Config holds application configuration
type Config struct {
	DataDir          string // Base directory for the SQLite databases (always absolute)
	PokeAPIBaseURL   string
	PokeAPIMirrorURL string // Optional override, takes precedence over the base URL when set
	CacheBackend     CacheBackend
	RedisURL         string
	LogLevel         string
	Port             int
	DevMode          bool
}

// Load reads configuration from the .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT value %q: %w", portStr, err)
		}
		port = p
	}

	dataDir := getEnv("DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir to absolute path: %w", err)
	}

	backend := CacheBackend(getEnv("CACHE_BACKEND", string(BackendSQLite)))
	switch backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q", backend)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		PokeAPIBaseURL:   getEnv("POKEAPI_BASE_URL", "https://pokeapi.co/api/v2/pokemon"),
		PokeAPIMirrorURL: os.Getenv("POKEAPI_MIRROR_URL"),
		CacheBackend:     backend,
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Port:             port,
		DevMode:          getEnv("DEV_MODE", "false") == "true",
	}

	return cfg, nil
}

// CacheDBPath returns the path of the cache database file.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// BattlesDBPath returns the path of the battles database file.
func (c *Config) BattlesDBPath() string {
	return filepath.Join(c.DataDir, "battles.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
