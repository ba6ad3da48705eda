package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/model"
	"github.com/tmirzaev/signaldesk/internal/repository"
)

// updatableSettings is the closed set of keys an operator may write.
// Anything else in a PUT body is rejected rather than silently stored.
var updatableSettings = map[string]bool{
	model.SettingVIPPrice:      true,
	model.SettingWalletTRC20:   true,
	model.SettingWalletERC20:   true,
	model.SettingWalletBitcoin: true,
}

// SettingsService exposes operator-tunable configuration: the VIP price
// shown on the marketing page and the deposit wallet addresses.
type SettingsService struct {
	settings repository.SettingsRepository
	logger   *slog.Logger
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(settings repository.SettingsRepository, logger *slog.Logger) *SettingsService {
	return &SettingsService{settings: settings, logger: logger}
}

// All returns every stored setting.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	settings, err := s.settings.AllSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return settings, nil
}

// Update writes the provided key/value pairs. Unknown keys fail the
// whole request; vip_price must parse as a non-negative number.
func (s *SettingsService) Update(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return apperror.ValidationFailed("settings", "no valid settings provided")
	}

	for key, value := range values {
		if !updatableSettings[key] {
			return apperror.ValidationFailed(key, "unknown setting")
		}
		if key == model.SettingVIPPrice {
			price, err := strconv.ParseFloat(value, 64)
			if err != nil || price < 0 {
				return apperror.ValidationFailed(key, "vip_price must be a non-negative number")
			}
		}
	}

	for key, value := range values {
		if err := s.settings.SetSetting(ctx, key, value); err != nil {
			return fmt.Errorf("storing setting %s: %w", key, err)
		}
		s.logger.Info("setting updated", slog.String("key", key))
	}

	return nil
}

// PaymentMethodInfo describes one way to pay, for the public
// /api/payment-methods surface.
type PaymentMethodInfo struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// PaymentMethodList returns the payment methods that have a configured
// wallet address. Methods without an address are omitted rather than
// advertised broken.
func (s *SettingsService) PaymentMethodList(ctx context.Context) ([]PaymentMethodInfo, error) {
	var methods []PaymentMethodInfo
	for id, key := range PaymentMethods {
		address, err := s.settings.GetSetting(ctx, key)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("loading wallet for %s: %w", id, err)
		}
		if address != "" {
			methods = append(methods, PaymentMethodInfo{ID: id, Address: address})
		}
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i].ID < methods[j].ID })
	return methods, nil
}
