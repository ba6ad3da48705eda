// Package repository defines the storage contract the services depend on.
//
// Two implementations exist behind these interfaces: sqlite (embedded,
// default) and postgres (server database, selected via DATABASE_URL).
// The choice is made once in server.New and injected; no code below the
// composition root knows which backend it is talking to.
package repository

import (
	"context"
	"time"

	"github.com/tmirzaev/signaldesk/internal/model"
)

// SignalFilter narrows signal listings. Zero values mean "no filter";
// PublishedOnly additionally hides scheduled rows whose published_at is
// still NULL.
type SignalFilter struct {
	Type          string // model.SignalTypeFree / model.SignalTypeVIP
	Status        string // model.SignalStatusActive / model.SignalStatusClosed
	PublishedOnly bool
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// SetUserTier is the single writer path for the entitlement label
	// outside redemption (which sets it inside ApplyRedemption's
	// transaction).
	SetUserTier(ctx context.Context, id string, tier model.Tier) error
}

type CodeRepository interface {
	CreateCode(ctx context.Context, code *model.VIPCode) error
	GetCodeByValue(ctx context.Context, code string) (*model.VIPCode, error)
	ListCodes(ctx context.Context) ([]model.VIPCodeWithRedeemer, error)

	// ApplyRedemption consumes the code and extends the user's VIP window
	// as a single atomic unit: it marks the code used (used_by, used_at)
	// and writes the user's tier + vip_expires_at, or applies nothing at
	// all.
	//
	// If the code's is_used flag is no longer false at commit time —
	// another redemption won the race — it returns apperror.ErrConflict
	// with no partial effects. This conditional update is the ONLY
	// synchronization point for concurrent redemptions; callers hold no
	// lock around it.
	ApplyRedemption(ctx context.Context, userID, codeID string, newExpiresAt, redeemedAt time.Time) error
}

type SignalRepository interface {
	CreateSignal(ctx context.Context, signal *model.Signal) error
	GetSignalByID(ctx context.Context, id string) (*model.Signal, error)
	ListSignals(ctx context.Context, filter SignalFilter) ([]model.Signal, error)
	UpdateSignal(ctx context.Context, signal *model.Signal) error
	DeleteSignal(ctx context.Context, id string) error
}

type InvestmentRepository interface {
	CreateInvestment(ctx context.Context, inv *model.Investment) error
	ListInvestmentsByUser(ctx context.Context, userID string) ([]model.Investment, error)
}

type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]string, error)
}

// Store aggregates every repository plus lifecycle management, so the
// server can hold one handle regardless of backend.
type Store interface {
	UserRepository
	CodeRepository
	SignalRepository
	InvestmentRepository
	SettingsRepository

	Close() error
}
