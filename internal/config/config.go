package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	StorageMemory   = "in-memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

type Config struct {
	Env      string // "local", "dev", "prod"
	HTTPAddr string

	// Storage
	StorageType   string
	DatabaseURL   string
	SQLitePath    string
	MigrationsDir string

	// Session
	JWTSecret  string
	LoginURL   string // external sign-in page; receives ?continue=
	SessionTTL int    // hours

	CORSOrigins []string
	SSL         bool
	LogLevel    string
}

// Load reads the configuration from the environment, falling back to local defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Env:           getEnv("APP_ENV", "local"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		StorageType:   getEnv("STORAGE_TYPE", StorageMemory),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "directory.db"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		LoginURL:      getEnv("LOGIN_URL", "/signin"),
		SessionTTL:    getEnvInt("SESSION_TTL_HOURS", 24*14),
		CORSOrigins:   strings.Split(getEnv("CORS_ORIGINS", "*"), ","),
		SSL:           getEnvBool("SSL", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	switch cfg.StorageType {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_TYPE %q", cfg.StorageType)
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "prod" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "local-development-secret"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
