package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/auth"
	"github.com/tmirzaev/signaldesk/internal/model"
	"github.com/tmirzaev/signaldesk/internal/repository"
)

// MinInvestmentAmount is the smallest accepted position, in USDT.
const MinInvestmentAmount = 100

// PaymentMethods maps the accepted payment method IDs to the settings
// key holding the deposit wallet address for that method.
var PaymentMethods = map[string]string{
	"usdt-trc20": model.SettingWalletTRC20,
	"usdt-erc20": model.SettingWalletERC20,
	"btc":        model.SettingWalletBitcoin,
}

// InvestmentService handles pooled-investment sign-up and the investor
// dashboard. Settlement stays manual: creating a position only records
// it as pending and hands back transfer instructions.
type InvestmentService struct {
	users       repository.UserRepository
	investments repository.InvestmentRepository
	settings    repository.SettingsRepository
	tokens      *auth.TokenService
	passwords   *auth.PasswordService
	logger      *slog.Logger
}

// NewInvestmentService creates an InvestmentService.
func NewInvestmentService(
	users repository.UserRepository,
	investments repository.InvestmentRepository,
	settings repository.SettingsRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *InvestmentService {
	return &InvestmentService{
		users:       users,
		investments: investments,
		settings:    settings,
		tokens:      tokens,
		passwords:   passwords,
		logger:      logger,
	}
}

// PaymentInfo is the manual transfer instruction returned on sign-up.
type PaymentInfo struct {
	Method  string  `json:"method"`
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
}

// InvestmentResult bundles everything the sign-up page needs: the
// (possibly just created) account with a fresh token, the pending
// position, and where to send the funds.
type InvestmentResult struct {
	User       *model.User
	Token      string
	Investment *model.Investment
	Payment    PaymentInfo
}

// Create signs a user up for a pooled investment.
//
// The flow auto-provisions: an unknown email creates an account on the
// spot, a known email must present its password (this is the one place
// outside /api/auth where credentials are checked). The tier transition
// to investor happens here and only here.
func (s *InvestmentService) Create(ctx context.Context, email, password string, amount float64, paymentMethod string) (*InvestmentResult, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if amount < MinInvestmentAmount {
		return nil, apperror.ValidationFailed("amount",
			fmt.Sprintf("minimum investment is %d USDT", MinInvestmentAmount))
	}

	walletKey, ok := PaymentMethods[paymentMethod]
	if !ok {
		return nil, apperror.ValidationFailed("paymentMethod", "unknown payment method")
	}

	address, err := s.settings.GetSetting(ctx, walletKey)
	if err != nil {
		return nil, fmt.Errorf("loading wallet address for %s: %w", paymentMethod, err)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		ok, verr := s.passwords.Verify(password, user.PasswordHash)
		if verr != nil {
			return nil, fmt.Errorf("verifying password: %w", verr)
		}
		if !ok {
			return nil, apperror.Unauthorized("invalid credentials")
		}
	case errors.Is(err, apperror.ErrNotFound):
		hash, herr := s.passwords.Hash(password)
		if herr != nil {
			return nil, fmt.Errorf("hashing password: %w", herr)
		}
		user = &model.User{Email: email, PasswordHash: hash, Tier: model.TierFree}
		if cerr := s.users.CreateUser(ctx, user); cerr != nil {
			return nil, fmt.Errorf("provisioning investor account: %w", cerr)
		}
		s.logger.Info("investor account auto-provisioned", slog.String("userID", user.ID))
	default:
		return nil, fmt.Errorf("looking up investor email: %w", err)
	}

	inv := &model.Investment{
		UserID:        user.ID,
		Amount:        amount,
		PaymentMethod: paymentMethod,
	}
	if err := s.investments.CreateInvestment(ctx, inv); err != nil {
		return nil, fmt.Errorf("recording investment: %w", err)
	}

	if err := s.users.SetUserTier(ctx, user.ID, model.TierInvestor); err != nil {
		return nil, fmt.Errorf("marking user %s as investor: %w", user.ID, err)
	}
	user.Tier = model.TierInvestor

	token, err := s.tokens.Generate(auth.Identity{UserID: user.ID, IsAdmin: user.IsAdmin})
	if err != nil {
		return nil, fmt.Errorf("generating token for investor %s: %w", user.ID, err)
	}

	s.logger.Info("investment created",
		slog.String("userID", user.ID),
		slog.String("investmentID", inv.ID),
		slog.Float64("amount", amount),
		slog.String("method", paymentMethod),
	)

	return &InvestmentResult{
		User:       user,
		Token:      token,
		Investment: inv,
		Payment: PaymentInfo{
			Method:  paymentMethod,
			Address: address,
			Amount:  amount,
		},
	}, nil
}

// ListByUser returns the caller's positions for the dashboard.
func (s *InvestmentService) ListByUser(ctx context.Context, userID string) ([]model.Investment, error) {
	investments, err := s.investments.ListInvestmentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing investments: %w", err)
	}
	return investments, nil
}
