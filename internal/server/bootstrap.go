package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/auth"
	"github.com/tmirzaev/signaldesk/internal/config"
	"github.com/tmirzaev/signaldesk/internal/model"
	"github.com/tmirzaev/signaldesk/internal/repository"
)

// seed creates the baseline records a fresh database needs: the
// operator account and the default VIP price. Every step is a
// check-then-insert so restarting the server is a no-op on an already
// seeded store.
func seed(ctx context.Context, cfg config.Config, store repository.Store, passwords *auth.PasswordService, logger *slog.Logger) error {
	if _, err := store.GetUserByEmail(ctx, cfg.AdminEmail); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return fmt.Errorf("checking admin account: %w", err)
		}

		hash, err := passwords.Hash(cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("hashing admin password: %w", err)
		}
		admin := &model.User{
			Email:        cfg.AdminEmail,
			PasswordHash: hash,
			IsAdmin:      true,
			Tier:         model.TierFree,
		}
		if err := store.CreateUser(ctx, admin); err != nil {
			return fmt.Errorf("creating admin account: %w", err)
		}
		logger.Info("admin account created", slog.String("email", cfg.AdminEmail))
	}

	if _, err := store.GetSetting(ctx, model.SettingVIPPrice); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return fmt.Errorf("checking vip_price setting: %w", err)
		}
		if err := store.SetSetting(ctx, model.SettingVIPPrice, "29.99"); err != nil {
			return fmt.Errorf("seeding vip_price: %w", err)
		}
	}

	return nil
}
