package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"
	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/model"
)

// CreateCode inserts a freshly generated VIP code.
func (db *DB) CreateCode(ctx context.Context, code *model.VIPCode) error {
	code.ID = xid.New().String()
	code.CreatedAt = time.Now().UTC()

	_, err := db.pool.Exec(ctx,
		`INSERT INTO vip_codes (id, code, duration_days, is_used, expires_at, created_at)
		 VALUES ($1, $2, $3, FALSE, $4, $5)`,
		code.ID, code.Code, code.DurationDays, code.ExpiresAt, code.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("vip code", code.Code)
		}
		return fmt.Errorf("postgres: inserting vip code: %w", err)
	}

	return nil
}

// GetCodeByValue looks up a code by its presented value.
func (db *DB) GetCodeByValue(ctx context.Context, value string) (*model.VIPCode, error) {
	var c model.VIPCode

	err := db.pool.QueryRow(ctx,
		`SELECT id, code, duration_days, is_used, used_by, used_at, expires_at, created_at
		 FROM vip_codes WHERE code = $1`,
		value,
	).Scan(
		&c.ID, &c.Code, &c.DurationDays, &c.IsUsed,
		&c.UsedBy, &c.UsedAt, &c.ExpiresAt, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("vip code", value)
		}
		return nil, fmt.Errorf("postgres: getting vip code: %w", err)
	}

	return &c, nil
}

// ListCodes returns all codes, newest first, with the redeemer's email.
func (db *DB) ListCodes(ctx context.Context) ([]model.VIPCodeWithRedeemer, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT vc.id, vc.code, vc.duration_days, vc.is_used, vc.used_by, vc.used_at,
		        vc.expires_at, vc.created_at, COALESCE(u.email, '')
		 FROM vip_codes vc
		 LEFT JOIN users u ON vc.used_by = u.id
		 ORDER BY vc.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing vip codes: %w", err)
	}
	defer rows.Close()

	var codes []model.VIPCodeWithRedeemer
	for rows.Next() {
		var c model.VIPCodeWithRedeemer
		if err := rows.Scan(
			&c.ID, &c.Code, &c.DurationDays, &c.IsUsed,
			&c.UsedBy, &c.UsedAt, &c.ExpiresAt, &c.CreatedAt, &c.UsedByEmail,
		); err != nil {
			return nil, fmt.Errorf("postgres: scanning vip code row: %w", err)
		}
		codes = append(codes, c)
	}

	return codes, rows.Err()
}

// ApplyRedemption marks the code used and writes the user's new VIP
// window in one transaction. Same conditional-update contract as the
// sqlite implementation: a code whose is_used flag already flipped makes
// the first UPDATE match zero rows, and the transaction rolls back with
// ErrConflict.
func (db *DB) ApplyRedemption(ctx context.Context, userID, codeID string, newExpiresAt, redeemedAt time.Time) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: beginning redemption tx: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after Commit

	tag, err := tx.Exec(ctx,
		`UPDATE vip_codes SET is_used = TRUE, used_by = $1, used_at = $2
		 WHERE id = $3 AND is_used = FALSE`,
		userID, redeemedAt.UTC(), codeID,
	)
	if err != nil {
		return fmt.Errorf("postgres: consuming vip code %s: %w", codeID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.Conflict("vip code", codeID)
	}

	tag, err = tx.Exec(ctx,
		`UPDATE users SET tier = $1, vip_expires_at = $2, updated_at = $3
		 WHERE id = $4`,
		string(model.TierVIP), newExpiresAt.UTC(), redeemedAt.UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("postgres: extending vip for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("user", userID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: committing redemption: %w", err)
	}

	return nil
}
