// Package sqlite implements the repository interfaces on an embedded
// SQLite database (pure-Go driver, no CGo). It is the default backend:
// a single file, no server to run, ":memory:" for tests.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/tmirzaev/signaldesk/internal/repository"
)

// compile-time check that *DB satisfies the full store contract
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and ensures the schema
// exists. Use ":memory:" for an ephemeral database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// A pooled ":memory:" handle would open a FRESH empty database per
	// connection; pinning the pool to one connection keeps tests sane.
	// File databases keep the default pool and rely on WAL.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a redemption transaction commits.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Referential integrity for vip_codes.used_by and investments.user_id.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool, flushing the WAL.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe
// to run on every start; there is no versioned migration tooling here.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id             TEXT PRIMARY KEY,
			email          TEXT NOT NULL UNIQUE,
			password_hash  TEXT NOT NULL,
			is_admin       INTEGER NOT NULL DEFAULT 0,
			tier           TEXT NOT NULL DEFAULT 'free',
			vip_expires_at DATETIME,
			created_at     DATETIME NOT NULL,
			updated_at     DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS vip_codes (
			id            TEXT PRIMARY KEY,
			code          TEXT NOT NULL UNIQUE,
			duration_days INTEGER NOT NULL,
			is_used       INTEGER NOT NULL DEFAULT 0,
			used_by       TEXT REFERENCES users(id),
			used_at       DATETIME,
			expires_at    DATETIME,
			created_at    DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_vip_codes_code ON vip_codes(code);
	`)
	if err != nil {
		return fmt.Errorf("creating vip_codes table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS signals (
			id           TEXT PRIMARY KEY,
			pair         TEXT NOT NULL,
			entry_price  REAL NOT NULL,
			target_1     REAL,
			target_2     REAL,
			target_3     REAL,
			stop_loss    REAL NOT NULL,
			signal_type  TEXT NOT NULL DEFAULT 'free',
			status       TEXT NOT NULL DEFAULT 'active',
			description  TEXT NOT NULL DEFAULT '',
			published_at DATETIME,
			scheduled_at DATETIME,
			created_at   DATETIME NOT NULL,
			updated_at   DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_signals_published_at ON signals(published_at);
	`)
	if err != nil {
		return fmt.Errorf("creating signals table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS investments (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL REFERENCES users(id),
			amount         REAL NOT NULL,
			profit_rate    REAL NOT NULL DEFAULT 5.0,
			payment_method TEXT NOT NULL,
			status         TEXT NOT NULL DEFAULT 'pending',
			start_date     DATETIME NOT NULL,
			created_at     DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_investments_user_id ON investments(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating investments table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating settings table: %w", err)
	}

	return nil
}
