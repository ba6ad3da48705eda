// Package postgres implements the repository interfaces on a server
// PostgreSQL database via pgx. Selected at startup when DATABASE_URL is
// set; the contract is identical to the sqlite package.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmirzaev/signaldesk/internal/repository"
)

// compile-time check that *DB satisfies the full store contract
var _ repository.Store = (*DB)(nil)

// DB wraps a pgx connection pool and implements repository.Store.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to the database at databaseURL and ensures the schema
// exists.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return db, nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

func (db *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id             TEXT PRIMARY KEY,
			email          TEXT NOT NULL UNIQUE,
			password_hash  TEXT NOT NULL,
			is_admin       BOOLEAN NOT NULL DEFAULT FALSE,
			tier           TEXT NOT NULL DEFAULT 'free',
			vip_expires_at TIMESTAMPTZ,
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS vip_codes (
			id            TEXT PRIMARY KEY,
			code          TEXT NOT NULL UNIQUE,
			duration_days INTEGER NOT NULL,
			is_used       BOOLEAN NOT NULL DEFAULT FALSE,
			used_by       TEXT REFERENCES users(id),
			used_at       TIMESTAMPTZ,
			expires_at    TIMESTAMPTZ,
			created_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vip_codes_code ON vip_codes(code)`,
		`CREATE TABLE IF NOT EXISTS signals (
			id           TEXT PRIMARY KEY,
			pair         TEXT NOT NULL,
			entry_price  DOUBLE PRECISION NOT NULL,
			target_1     DOUBLE PRECISION,
			target_2     DOUBLE PRECISION,
			target_3     DOUBLE PRECISION,
			stop_loss    DOUBLE PRECISION NOT NULL,
			signal_type  TEXT NOT NULL DEFAULT 'free',
			status       TEXT NOT NULL DEFAULT 'active',
			description  TEXT NOT NULL DEFAULT '',
			published_at TIMESTAMPTZ,
			scheduled_at TIMESTAMPTZ,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_published_at ON signals(published_at)`,
		`CREATE TABLE IF NOT EXISTS investments (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL REFERENCES users(id),
			amount         DOUBLE PRECISION NOT NULL,
			profit_rate    DOUBLE PRECISION NOT NULL DEFAULT 5.0,
			payment_method TEXT NOT NULL,
			status         TEXT NOT NULL DEFAULT 'pending',
			start_date     TIMESTAMPTZ NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_investments_user_id ON investments(user_id)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("executing %.40q: %w", stmt, err)
		}
	}
	return nil
}
