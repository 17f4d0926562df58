// Package config holds the tunables of the store and loads the runtime
// configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Presence
	ActiveThreshold = 5 * time.Minute

	// Relative activity buckets
	Second = time.Second
	Minute = time.Minute
	Hour   = time.Hour
	Day    = 24 * time.Hour
	Week   = 7 * Day
	Month  = 30 * Day
	Year   = 365 * Day
)

// Storage backends
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config is the runtime configuration of the binaries.
type Config struct {
	Backend string

	SQLitePath string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	PGDriver   string

	RedisAddr     string
	RedisPassword string
	RedisPrefix   string

	HTTPAddr    string
	IDStrategy  string
	DefaultUser string
	Lang        string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	c := &Config{
		Backend:       getenv("STORE_BACKEND", BackendSQLite),
		SQLitePath:    getenv("SQLITE_PATH", "chatstore.db"),
		DBHost:        getenv("DB_HOST", "localhost"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        getenv("DB_NAME", "chatstore"),
		DBPort:        getenv("DB_PORT", "5432"),
		PGDriver:      getenv("PG_DRIVER", "pgx"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisPrefix:   getenv("REDIS_PREFIX", "chatstore:"),
		HTTPAddr:      getenv("HTTP_ADDR", "127.0.0.1:8080"),
		IDStrategy:    getenv("ID_STRATEGY", "monotonic"),
		DefaultUser:   getenv("DEFAULT_USER", "sean"),
		Lang:          getenv("LANG_CODE", "ko"),
	}

	switch c.Backend {
	case BackendSQLite, BackendPostgres, BackendRedis, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", c.Backend)
	}
	return c, nil
}

// PostgresDSN builds the connection string for the postgres backend.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
