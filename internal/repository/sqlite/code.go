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

// CreateCode inserts a freshly generated VIP code.
func (db *DB) CreateCode(ctx context.Context, code *model.VIPCode) error {
	code.ID = xid.New().String()
	code.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO vip_codes (id, code, duration_days, is_used, expires_at, created_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		code.ID,
		code.Code,
		code.DurationDays,
		code.ExpiresAt,
		code.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("vip code", code.Code)
		}
		return fmt.Errorf("sqlite: inserting vip code: %w", err)
	}

	return nil
}

// GetCodeByValue looks up a code by its presented value.
// Returns apperror.ErrNotFound if no such code was ever issued.
func (db *DB) GetCodeByValue(ctx context.Context, value string) (*model.VIPCode, error) {
	var (
		c       model.VIPCode
		usedBy  sql.NullString
		usedAt  sql.NullTime
		expires sql.NullTime
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, code, duration_days, is_used, used_by, used_at, expires_at, created_at
		 FROM vip_codes WHERE code = ?`,
		value,
	).Scan(
		&c.ID,
		&c.Code,
		&c.DurationDays,
		&c.IsUsed,
		&usedBy,
		&usedAt,
		&expires,
		&c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("vip code", value)
		}
		return nil, fmt.Errorf("sqlite: getting vip code: %w", err)
	}

	if usedBy.Valid {
		c.UsedBy = &usedBy.String
	}
	if usedAt.Valid {
		t := usedAt.Time.UTC()
		c.UsedAt = &t
	}
	if expires.Valid {
		t := expires.Time.UTC()
		c.ExpiresAt = &t
	}

	return &c, nil
}

// ListCodes returns all codes, newest first, joined with the redeeming user's
// email for the admin dashboard.
func (db *DB) ListCodes(ctx context.Context) ([]model.VIPCodeWithRedeemer, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT vc.id, vc.code, vc.duration_days, vc.is_used, vc.used_by, vc.used_at,
		        vc.expires_at, vc.created_at, COALESCE(u.email, '')
		 FROM vip_codes vc
		 LEFT JOIN users u ON vc.used_by = u.id
		 ORDER BY vc.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing vip codes: %w", err)
	}
	defer rows.Close()

	var codes []model.VIPCodeWithRedeemer
	for rows.Next() {
		var (
			c       model.VIPCodeWithRedeemer
			usedBy  sql.NullString
			usedAt  sql.NullTime
			expires sql.NullTime
		)
		if err := rows.Scan(
			&c.ID, &c.Code, &c.DurationDays, &c.IsUsed,
			&usedBy, &usedAt, &expires, &c.CreatedAt, &c.UsedByEmail,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning vip code row: %w", err)
		}
		if usedBy.Valid {
			c.UsedBy = &usedBy.String
		}
		if usedAt.Valid {
			t := usedAt.Time.UTC()
			c.UsedAt = &t
		}
		if expires.Valid {
			t := expires.Time.UTC()
			c.ExpiresAt = &t
		}
		codes = append(codes, c)
	}

	return codes, rows.Err()
}

// ApplyRedemption marks the code used and writes the user's new VIP
// window in one transaction.
//
// The conditional UPDATE ... WHERE is_used = 0 is what makes concurrent
// redemption safe: whichever transaction commits first flips the flag,
// every later one matches zero rows and rolls back with ErrConflict.
// There is deliberately no SELECT-then-UPDATE here — the check and the
// write must be one statement.
func (db *DB) ApplyRedemption(ctx context.Context, userID, codeID string, newExpiresAt, redeemedAt time.Time) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning redemption tx: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	res, err := tx.ExecContext(ctx,
		`UPDATE vip_codes SET is_used = 1, used_by = ?, used_at = ?
		 WHERE id = ? AND is_used = 0`,
		userID, redeemedAt.UTC(), codeID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: consuming vip code %s: %w", codeID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.Conflict("vip code", codeID)
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE users SET tier = ?, vip_expires_at = ?, updated_at = ?
		 WHERE id = ?`,
		string(model.TierVIP), newExpiresAt.UTC(), redeemedAt.UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: extending vip for user %s: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("user", userID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing redemption: %w", err)
	}

	return nil
}
