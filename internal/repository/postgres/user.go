package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/xid"
	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/model"
)

// uniqueViolation is the Postgres error code for a duplicate key.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

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

	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, is_admin, tier, vip_expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Email, user.PasswordHash, user.IsAdmin,
		string(user.Tier), user.VIPExpiresAt, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("postgres: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetUserByID retrieves a user by internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = $1`, id)
}

// GetUserByEmail retrieves a user by email (exact match).
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = $1`, email)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u       model.User
		tier    string
		expires *time.Time
	)

	err := db.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, is_admin, tier, vip_expires_at, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.IsAdmin,
		&tier, &expires, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("postgres: getting user %v: %w", arg, err)
	}

	u.Tier = model.Tier(tier)
	u.VIPExpiresAt = expires

	return &u, nil
}

// SetUserTier updates the entitlement label only.
func (db *DB) SetUserTier(ctx context.Context, id string, tier model.Tier) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET tier = $1, updated_at = $2 WHERE id = $3`,
		string(tier), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("postgres: setting tier for user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
