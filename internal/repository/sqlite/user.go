package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/model"
)

// CreateUser inserts a new user, generating the ID and timestamps in place.
// A duplicate email surfaces as apperror.ErrConflict.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Tier == "" {
		user.Tier = model.TierFree
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, is_admin, tier, vip_expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		string(user.Tier),
		user.VIPExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// SQLite reports duplicate emails as a UNIQUE constraint failure.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetUserByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email. The lookup is exact; emails are
// stored case-sensitively as given at registration.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ?`, email)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u       model.User
		tier    string
		expires sql.NullTime
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, is_admin, tier, vip_expires_at, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.IsAdmin,
		&tier,
		&expires,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user %v: %w", arg, err)
	}

	u.Tier = model.Tier(tier)
	if expires.Valid {
		t := expires.Time.UTC()
		u.VIPExpiresAt = &t
	}

	return &u, nil
}

// SetUserTier updates the entitlement label only. Redemption does not use
// this; it writes the label inside ApplyRedemption's transaction.
func (db *DB) SetUserTier(ctx context.Context, id string, tier model.Tier) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET tier = ?, updated_at = ? WHERE id = ?`,
		string(tier), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting tier for user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
