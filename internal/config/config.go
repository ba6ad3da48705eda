// Package config loads server configuration from the environment.
//
// Everything the process needs is read ONCE here and handed down as an
// explicit value — nothing else in the codebase calls os.Getenv. That
// includes the storage backend choice: DATABASE_URL set means Postgres,
// otherwise an embedded SQLite file. Downstream code sees only the
// repository interface, never the flag.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Backend names the storage implementation selected at startup.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Config holds all server configuration values.
type Config struct {
	Port        int
	JWTSecret   string
	Backend     Backend
	DBPath      string // SQLite file path (BackendSQLite)
	DatabaseURL string // Postgres connection string (BackendPostgres)

	// AdminEmail/AdminPassword seed the bootstrap operator account on
	// first start. The password default exists for local development
	// only; deployments override it.
	AdminEmail    string
	AdminPassword string
}

// Load reads a .env file if present, then the environment, and returns a
// validated Config.
//
// The .env file is optional and only a local-development convenience;
// missing file is not an error (godotenv.Load's error is ignored on
// purpose, matching how the other services in this stack treat it).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:          8080,
		JWTSecret:     os.Getenv("JWT_SECRET"),
		DBPath:        "data/signaldesk.db",
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AdminEmail:    "admin@signaldesk.local",
		AdminPassword: "admin123",
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		cfg.DBPath = envDB
	}

	if email := os.Getenv("ADMIN_EMAIL"); email != "" {
		cfg.AdminEmail = email
	}
	if pw := os.Getenv("ADMIN_PASSWORD"); pw != "" {
		cfg.AdminPassword = pw
	}

	if cfg.DatabaseURL != "" {
		cfg.Backend = BackendPostgres
	} else {
		cfg.Backend = BackendSQLite
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET must be set")
	}

	return cfg, nil
}
