package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/model"
	"github.com/tmirzaev/signaldesk/internal/repository"
)

const signalColumns = `id, pair, entry_price, target_1, target_2, target_3, stop_loss,
	signal_type, status, description, published_at, scheduled_at, created_at, updated_at`

// CreateSignal inserts a new signal, generating ID and timestamps.
func (db *DB) CreateSignal(ctx context.Context, s *model.Signal) error {
	now := time.Now().UTC()
	s.ID = xid.New().String()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO signals (`+signalColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Pair, s.EntryPrice, s.Target1, s.Target2, s.Target3, s.StopLoss,
		s.Type, s.Status, s.Description, s.PublishedAt, s.ScheduledAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting signal: %w", err)
	}
	return nil
}

// GetSignalByID retrieves a single signal.
func (db *DB) GetSignalByID(ctx context.Context, id string) (*model.Signal, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+signalColumns+` FROM signals WHERE id = ?`, id)

	s, err := scanSignal(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("signal", id)
		}
		return nil, fmt.Errorf("sqlite: getting signal %s: %w", id, err)
	}
	return s, nil
}

// ListSignals returns signals newest-published first, applying the filter.
func (db *DB) ListSignals(ctx context.Context, filter repository.SignalFilter) ([]model.Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE 1=1`
	var args []any

	if filter.Type != "" {
		query += ` AND signal_type = ?`
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.PublishedOnly {
		query += ` AND published_at IS NOT NULL`
	}
	query += ` ORDER BY COALESCE(published_at, created_at) DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing signals: %w", err)
	}
	defer rows.Close()

	var signals []model.Signal
	for rows.Next() {
		s, err := scanSignal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning signal row: %w", err)
		}
		signals = append(signals, *s)
	}

	return signals, rows.Err()
}

// UpdateSignal overwrites all mutable fields of an existing signal.
func (db *DB) UpdateSignal(ctx context.Context, s *model.Signal) error {
	s.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE signals SET pair = ?, entry_price = ?, target_1 = ?, target_2 = ?, target_3 = ?,
		 stop_loss = ?, signal_type = ?, status = ?, description = ?, published_at = ?,
		 scheduled_at = ?, updated_at = ?
		 WHERE id = ?`,
		s.Pair, s.EntryPrice, s.Target1, s.Target2, s.Target3,
		s.StopLoss, s.Type, s.Status, s.Description, s.PublishedAt,
		s.ScheduledAt, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating signal %s: %w", s.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("signal", s.ID)
	}
	return nil
}

// DeleteSignal removes a signal by ID.
func (db *DB) DeleteSignal(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM signals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting signal %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("signal", id)
	}
	return nil
}

// scanSignal reads one signal row via the given Scan function, so it
// works for both QueryRow and Rows.
func scanSignal(scan func(...any) error) (*model.Signal, error) {
	var (
		s                      model.Signal
		t1, t2, t3             sql.NullFloat64
		publishedAt, scheduled sql.NullTime
	)

	err := scan(
		&s.ID, &s.Pair, &s.EntryPrice, &t1, &t2, &t3, &s.StopLoss,
		&s.Type, &s.Status, &s.Description, &publishedAt, &scheduled,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if t1.Valid {
		s.Target1 = &t1.Float64
	}
	if t2.Valid {
		s.Target2 = &t2.Float64
	}
	if t3.Valid {
		s.Target3 = &t3.Float64
	}
	if publishedAt.Valid {
		t := publishedAt.Time.UTC()
		s.PublishedAt = &t
	}
	if scheduled.Valid {
		t := scheduled.Time.UTC()
		s.ScheduledAt = &t
	}

	return &s, nil
}
