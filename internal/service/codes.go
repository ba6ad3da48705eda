package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/model"
	"github.com/tmirzaev/signaldesk/internal/repository"
)

const (
	// codeShelfLifeDays is how long a generated code stays redeemable.
	codeShelfLifeDays = 30

	// codeLength is the number of characters in a generated code value.
	codeLength = 12

	// MaxCodeBatch caps one generation request.
	MaxCodeBatch = 100
)

// CodeService is the admin-side issuance and listing of VIP codes.
// Redemption lives in RedemptionService; this service never flips
// is_used.
type CodeService struct {
	codes  repository.CodeRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewCodeService creates a CodeService.
func NewCodeService(codes repository.CodeRepository, logger *slog.Logger) *CodeService {
	return &CodeService{
		codes:  codes,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Generate issues a batch of single-use codes, each granting
// durationDays of VIP and staying redeemable for 30 days.
//
// The durationDays > 0 check here is the guard the redemption engine
// relies on: a non-positive duration must never reach storage.
func (s *CodeService) Generate(ctx context.Context, durationDays, quantity int) ([]string, error) {
	if durationDays <= 0 {
		return nil, apperror.ValidationFailed("durationDays", "duration must be a positive number of days")
	}
	if quantity <= 0 {
		quantity = 1
	}
	if quantity > MaxCodeBatch {
		return nil, apperror.ValidationFailed("quantity",
			fmt.Sprintf("at most %d codes per batch", MaxCodeBatch))
	}

	expiresAt := s.now().AddDate(0, 0, codeShelfLifeDays)

	values := make([]string, 0, quantity)
	for i := 0; i < quantity; i++ {
		code := &model.VIPCode{
			Code:         newCodeValue(),
			DurationDays: durationDays,
			ExpiresAt:    &expiresAt,
		}
		if err := s.codes.CreateCode(ctx, code); err != nil {
			return nil, fmt.Errorf("creating vip code: %w", err)
		}
		values = append(values, code.Code)
	}

	s.logger.Info("vip codes generated",
		slog.Int("quantity", quantity),
		slog.Int("durationDays", durationDays),
	)

	return values, nil
}

// List returns all issued codes with redeemer emails, newest first.
func (s *CodeService) List(ctx context.Context) ([]model.VIPCodeWithRedeemer, error) {
	codes, err := s.codes.ListCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing vip codes: %w", err)
	}
	return codes, nil
}

// newCodeValue derives a 12-character uppercase code from a random UUID.
// ~48 bits of entropy, enough that guessing is hopeless at this scale
// while staying typeable from a printed voucher.
func newCodeValue() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:codeLength])
}
