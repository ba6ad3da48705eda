package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/model"
	"github.com/tmirzaev/signaldesk/internal/repository"
)

// SignalService handles the catalog: the public free feed, the VIP feed,
// and the admin CRUD.
type SignalService struct {
	signals repository.SignalRepository
	users   repository.UserRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewSignalService creates a SignalService.
func NewSignalService(signals repository.SignalRepository, users repository.UserRepository, logger *slog.Logger) *SignalService {
	return &SignalService{
		signals: signals,
		users:   users,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SignalInput carries the admin-provided fields for create/update.
type SignalInput struct {
	Pair        string
	EntryPrice  float64
	Target1     *float64
	Target2     *float64
	Target3     *float64
	StopLoss    float64
	Type        string
	Status      string
	Description string
	ScheduledAt *time.Time
}

// ListPublic returns active free signals that are published. VIP rows
// never appear here regardless of the caller.
func (s *SignalService) ListPublic(ctx context.Context) ([]model.Signal, error) {
	signals, err := s.signals.ListSignals(ctx, repository.SignalFilter{
		Type:          model.SignalTypeFree,
		Status:        model.SignalStatusActive,
		PublishedOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("listing public signals: %w", err)
	}
	return signals, nil
}

// ListVIP returns active VIP signals for an entitled caller.
//
// Entitlement is decided by the expiry timestamp alone: a nil or past
// vip_expires_at behaves as free no matter what tier label the user row
// carries. Unentitled callers get ErrForbidden.
func (s *SignalService) ListVIP(ctx context.Context, userID string) ([]model.Signal, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", userID, err)
	}

	if !user.HasActiveVIP(s.now()) {
		return nil, apperror.Forbidden("VIP access required")
	}

	signals, err := s.signals.ListSignals(ctx, repository.SignalFilter{
		Type:          model.SignalTypeVIP,
		Status:        model.SignalStatusActive,
		PublishedOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("listing vip signals: %w", err)
	}
	return signals, nil
}

// ListAll returns every signal for the admin dashboard, including
// scheduled and closed ones.
func (s *SignalService) ListAll(ctx context.Context) ([]model.Signal, error) {
	signals, err := s.signals.ListSignals(ctx, repository.SignalFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing all signals: %w", err)
	}
	return signals, nil
}

// Create validates and publishes (or schedules) a new signal.
// A signal with ScheduledAt set stays unpublished until an operator
// releases it; otherwise it is published immediately.
func (s *SignalService) Create(ctx context.Context, in SignalInput) (*model.Signal, error) {
	if err := validateSignalInput(&in); err != nil {
		return nil, err
	}

	signal := &model.Signal{
		Pair:        in.Pair,
		EntryPrice:  in.EntryPrice,
		Target1:     in.Target1,
		Target2:     in.Target2,
		Target3:     in.Target3,
		StopLoss:    in.StopLoss,
		Type:        in.Type,
		Status:      in.Status,
		Description: strings.TrimSpace(in.Description),
		ScheduledAt: in.ScheduledAt,
	}
	if in.ScheduledAt == nil {
		now := s.now()
		signal.PublishedAt = &now
	}

	if err := s.signals.CreateSignal(ctx, signal); err != nil {
		s.logger.Error("failed to create signal",
			slog.String("pair", in.Pair),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating signal: %w", err)
	}

	s.logger.Info("signal created",
		slog.String("id", signal.ID),
		slog.String("pair", signal.Pair),
		slog.String("type", signal.Type),
	)

	return signal, nil
}

// Update applies the input to an existing signal, fetch-then-update.
func (s *SignalService) Update(ctx context.Context, id string, in SignalInput) (*model.Signal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "signal ID is required")
	}
	if err := validateSignalInput(&in); err != nil {
		return nil, err
	}

	signal, err := s.signals.GetSignalByID(ctx, id)
	if err != nil {
		return nil, err
	}

	signal.Pair = in.Pair
	signal.EntryPrice = in.EntryPrice
	signal.Target1 = in.Target1
	signal.Target2 = in.Target2
	signal.Target3 = in.Target3
	signal.StopLoss = in.StopLoss
	signal.Type = in.Type
	signal.Status = in.Status
	signal.Description = strings.TrimSpace(in.Description)

	if err := s.signals.UpdateSignal(ctx, signal); err != nil {
		return nil, fmt.Errorf("updating signal %s: %w", id, err)
	}

	s.logger.Info("signal updated", slog.String("id", id))

	return signal, nil
}

// Delete removes a signal by ID.
func (s *SignalService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "signal ID is required")
	}

	if err := s.signals.DeleteSignal(ctx, id); err != nil {
		return err
	}

	s.logger.Info("signal deleted", slog.String("id", id))
	return nil
}

func validateSignalInput(in *SignalInput) error {
	in.Pair = strings.TrimSpace(in.Pair)
	if in.Pair == "" {
		return apperror.ValidationFailed("pair", "pair is required")
	}
	if in.EntryPrice <= 0 {
		return apperror.ValidationFailed("entryPrice", "entry price must be positive")
	}
	if in.StopLoss <= 0 {
		return apperror.ValidationFailed("stopLoss", "stop loss must be positive")
	}

	if in.Type == "" {
		in.Type = model.SignalTypeFree
	}
	if in.Type != model.SignalTypeFree && in.Type != model.SignalTypeVIP {
		return apperror.ValidationFailed("type", "type must be free or vip")
	}

	if in.Status == "" {
		in.Status = model.SignalStatusActive
	}
	if in.Status != model.SignalStatusActive && in.Status != model.SignalStatusClosed {
		return apperror.ValidationFailed("status", "status must be active or closed")
	}

	return nil
}
