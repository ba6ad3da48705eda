package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/tmirzaev/signaldesk/internal/model"
)

// CreateInvestment inserts a new investment position.
func (db *DB) CreateInvestment(ctx context.Context, inv *model.Investment) error {
	now := time.Now().UTC()
	inv.ID = xid.New().String()
	inv.CreatedAt = now
	if inv.StartDate.IsZero() {
		inv.StartDate = now
	}
	if inv.ProfitRate == 0 {
		inv.ProfitRate = model.DefaultProfitRate
	}
	if inv.Status == "" {
		inv.Status = model.InvestmentStatusPending
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO investments (id, user_id, amount, profit_rate, payment_method, status, start_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.UserID, inv.Amount, inv.ProfitRate,
		inv.PaymentMethod, inv.Status, inv.StartDate, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting investment for user %s: %w", inv.UserID, err)
	}
	return nil
}

// ListInvestmentsByUser returns the user's positions, newest first.
func (db *DB) ListInvestmentsByUser(ctx context.Context, userID string) ([]model.Investment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, amount, profit_rate, payment_method, status, start_date, created_at
		 FROM investments WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing investments for user %s: %w", userID, err)
	}
	defer rows.Close()

	var investments []model.Investment
	for rows.Next() {
		var inv model.Investment
		if err := rows.Scan(
			&inv.ID, &inv.UserID, &inv.Amount, &inv.ProfitRate,
			&inv.PaymentMethod, &inv.Status, &inv.StartDate, &inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning investment row: %w", err)
		}
		investments = append(investments, inv)
	}

	return investments, rows.Err()
}
