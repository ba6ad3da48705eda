// Package service contains the business logic layer: validation, the
// entitlement rules, and orchestration between repositories. Handlers
// parse HTTP and call in here; repositories persist what these methods
// decide.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/repository"
)

// RedemptionService turns a presented VIP code into an entitlement
// change. It owns the stacking/extension arithmetic and the error
// taxonomy; the store only reports found / not-found / conflict.
//
// Concurrency: Redeem may run for the same code from many requests at
// once. It takes no lock — the store's conditional update inside
// ApplyRedemption is the single synchronization point, so two racing
// redemptions of one code end as exactly one success and one invalid-code
// result.
type RedemptionService struct {
	users  repository.UserRepository
	codes  repository.CodeRepository
	logger *slog.Logger

	// now is injected so tests can pin the clock. Defaults to UTC wall
	// time.
	now func() time.Time
}

// NewRedemptionService creates a RedemptionService with all dependencies.
func NewRedemptionService(users repository.UserRepository, codes repository.CodeRepository, logger *slog.Logger) *RedemptionService {
	return &RedemptionService{
		users:  users,
		codes:  codes,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Test hook.
func (s *RedemptionService) WithClock(now func() time.Time) *RedemptionService {
	s.now = now
	return s
}

// Redeem validates the code and extends the user's VIP window.
//
// The new expiry stacks on remaining time: if the user's current expiry
// is still in the future it becomes the base, otherwise the grant starts
// at now (a lapsed entitlement is neither backdated nor penalized). The
// grant length is the code's duration in calendar days, UTC.
//
// A Conflict from the store means another redemption changed the code or
// the user between our read and our write; the whole algorithm is rerun
// once from the lookup (which then reports the code as used, i.e.
// invalid). A second Conflict surfaces as invalid code too — the caller
// cannot distinguish losing a race from presenting a spent code, on
// purpose.
func (s *RedemptionService) Redeem(ctx context.Context, userID, codeValue string) (time.Time, error) {
	codeValue = strings.TrimSpace(codeValue)
	if codeValue == "" {
		return time.Time{}, apperror.ValidationFailed("code", "code is required")
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		expiry, err := s.redeemOnce(ctx, userID, codeValue)
		if err != nil && errors.Is(err, apperror.ErrConflict) {
			s.logger.Info("redemption lost race, retrying",
				slog.String("userID", userID),
				slog.Int("attempt", attempt+1),
			)
			lastErr = err
			continue
		}
		return expiry, err
	}

	// Both attempts conflicted. Report it as an invalid code so the
	// error surface stays uniform; the log above keeps the real cause.
	s.logger.Warn("redemption conflict persisted after retry",
		slog.String("userID", userID),
		slog.String("error", lastErr.Error()),
	)
	return time.Time{}, apperror.InvalidCode()
}

// redeemOnce executes one pass of the redemption algorithm.
func (s *RedemptionService) redeemOnce(ctx context.Context, userID, codeValue string) (time.Time, error) {
	now := s.now()

	code, err := s.codes.GetCodeByValue(ctx, codeValue)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Not-found and already-used share one user-facing error to
			// avoid code enumeration. Logs may distinguish; responses
			// may not.
			return time.Time{}, apperror.InvalidCode()
		}
		return time.Time{}, fmt.Errorf("looking up code: %w", err)
	}

	if code.IsUsed {
		return time.Time{}, apperror.InvalidCode()
	}

	if code.Expired(now) {
		return time.Time{}, apperror.CodeExpired()
	}

	if code.DurationDays <= 0 {
		// Issuance rejects non-positive durations, so a stored one is a
		// data integrity failure, not a user error.
		return time.Time{}, fmt.Errorf("code %s has invalid duration %d", code.ID, code.DurationDays)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return time.Time{}, fmt.Errorf("loading user %s: %w", userID, err)
	}

	// Base instant: stack onto remaining time, or start fresh from now.
	base := now
	if user.HasActiveVIP(now) {
		base = *user.VIPExpiresAt
	}
	newExpiresAt := base.AddDate(0, 0, code.DurationDays)

	if err := s.codes.ApplyRedemption(ctx, userID, code.ID, newExpiresAt, now); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return time.Time{}, err
		}
		return time.Time{}, fmt.Errorf("applying redemption of code %s: %w", code.ID, err)
	}

	s.logger.Info("vip code redeemed",
		slog.String("userID", userID),
		slog.String("codeID", code.ID),
		slog.Int("durationDays", code.DurationDays),
		slog.Time("newExpiresAt", newExpiresAt),
	)

	return newExpiresAt, nil
}
