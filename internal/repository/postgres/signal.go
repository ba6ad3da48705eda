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

	_, err := db.pool.Exec(ctx,
		`INSERT INTO signals (`+signalColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ID, s.Pair, s.EntryPrice, s.Target1, s.Target2, s.Target3, s.StopLoss,
		s.Type, s.Status, s.Description, s.PublishedAt, s.ScheduledAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: inserting signal: %w", err)
	}
	return nil
}

// GetSignalByID retrieves a single signal.
func (db *DB) GetSignalByID(ctx context.Context, id string) (*model.Signal, error) {
	var s model.Signal
	err := db.pool.QueryRow(ctx,
		`SELECT `+signalColumns+` FROM signals WHERE id = $1`, id,
	).Scan(
		&s.ID, &s.Pair, &s.EntryPrice, &s.Target1, &s.Target2, &s.Target3, &s.StopLoss,
		&s.Type, &s.Status, &s.Description, &s.PublishedAt, &s.ScheduledAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("signal", id)
		}
		return nil, fmt.Errorf("postgres: getting signal %s: %w", id, err)
	}
	return &s, nil
}

// ListSignals returns signals newest-published first, applying the filter.
func (db *DB) ListSignals(ctx context.Context, filter repository.SignalFilter) ([]model.Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE TRUE`
	var args []any

	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(` AND signal_type = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.PublishedOnly {
		query += ` AND published_at IS NOT NULL`
	}
	query += ` ORDER BY COALESCE(published_at, created_at) DESC`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing signals: %w", err)
	}
	defer rows.Close()

	var signals []model.Signal
	for rows.Next() {
		var s model.Signal
		if err := rows.Scan(
			&s.ID, &s.Pair, &s.EntryPrice, &s.Target1, &s.Target2, &s.Target3, &s.StopLoss,
			&s.Type, &s.Status, &s.Description, &s.PublishedAt, &s.ScheduledAt,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scanning signal row: %w", err)
		}
		signals = append(signals, s)
	}

	return signals, rows.Err()
}

// UpdateSignal overwrites all mutable fields of an existing signal.
func (db *DB) UpdateSignal(ctx context.Context, s *model.Signal) error {
	s.UpdatedAt = time.Now().UTC()

	tag, err := db.pool.Exec(ctx,
		`UPDATE signals SET pair = $1, entry_price = $2, target_1 = $3, target_2 = $4,
		 target_3 = $5, stop_loss = $6, signal_type = $7, status = $8, description = $9,
		 published_at = $10, scheduled_at = $11, updated_at = $12
		 WHERE id = $13`,
		s.Pair, s.EntryPrice, s.Target1, s.Target2, s.Target3, s.StopLoss,
		s.Type, s.Status, s.Description, s.PublishedAt, s.ScheduledAt, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating signal %s: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("signal", s.ID)
	}
	return nil
}

// DeleteSignal removes a signal by ID.
func (db *DB) DeleteSignal(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM signals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting signal %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("signal", id)
	}
	return nil
}
