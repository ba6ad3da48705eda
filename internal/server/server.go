// Package server wires the dependency graph and owns the HTTP lifecycle.
//
// This is the composition root: the storage backend is chosen HERE, once,
// from config, and handed to the services as an interface. Nothing below
// this package branches on which database is in use.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tmirzaev/signaldesk/internal/auth"
	"github.com/tmirzaev/signaldesk/internal/config"
	"github.com/tmirzaev/signaldesk/internal/handler"
	"github.com/tmirzaev/signaldesk/internal/middleware"
	"github.com/tmirzaev/signaldesk/internal/repository"
	"github.com/tmirzaev/signaldesk/internal/repository/postgres"
	"github.com/tmirzaev/signaldesk/internal/repository/sqlite"
	"github.com/tmirzaev/signaldesk/internal/service"
)

// Server holds the router and the resources it must release on shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
}

// New builds the full dependency chain: store → services → handlers →
// routes.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	if err := seed(context.Background(), cfg, store, passwords, logger); err != nil {
		store.Close()
		return nil, fmt.Errorf("seeding defaults: %w", err)
	}

	s.setupRoutes(tokens, passwords)

	return s, nil
}

// openStore picks the storage backend from config. This is the only
// place the choice is visible.
func openStore(cfg config.Config, logger *slog.Logger) (repository.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		logger.Info("using postgres store")
		store, err := postgres.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store, nil
	default:
		logger.Info("using sqlite store", slog.String("path", cfg.DBPath))
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, nil
	}
}

func (s *Server) setupRoutes(tokens *auth.TokenService, passwords *auth.PasswordService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	authService := service.NewAuthService(s.store, tokens, passwords, s.logger)
	redemptionService := service.NewRedemptionService(s.store, s.store, s.logger)
	signalService := service.NewSignalService(s.store, s.store, s.logger)
	codeService := service.NewCodeService(s.store, s.logger)
	settingsService := service.NewSettingsService(s.store, s.logger)
	investmentService := service.NewInvestmentService(s.store, s.store, s.store, tokens, passwords, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	redeemHandler := handler.NewRedeemHandler(redemptionService, s.logger)
	signalHandler := handler.NewSignalHandler(signalService, s.logger)
	investmentHandler := handler.NewInvestmentHandler(investmentService, settingsService, s.logger)
	adminHandler := handler.NewAdminHandler(signalService, codeService, settingsService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		// Public surface
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Get("/signals", signalHandler.HandleListPublic)
		r.Get("/payment-methods", investmentHandler.HandleListPaymentMethods)
		r.Post("/investment/create", investmentHandler.HandleCreate)

		// Authenticated surface
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/signals/vip", signalHandler.HandleListVIP)
			r.Post("/redeem-code", redeemHandler.HandleRedeem)
			r.Get("/investments/my", investmentHandler.HandleListMine)
		})

		// Admin surface
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens), auth.RequireAdmin)
			r.Get("/admin/signals", adminHandler.HandleListSignals)
			r.Post("/admin/signals", adminHandler.HandleCreateSignal)
			r.Put("/admin/signals/{id}", adminHandler.HandleUpdateSignal)
			r.Delete("/admin/signals/{id}", adminHandler.HandleDeleteSignal)
			r.Get("/admin/vip-codes", adminHandler.HandleListCodes)
			r.Post("/admin/vip-codes", adminHandler.HandleGenerateCodes)
			r.Get("/admin/settings", adminHandler.HandleGetSettings)
			r.Put("/admin/settings", adminHandler.HandleUpdateSettings)
		})
	})
}

// Start runs the server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting, drain in-flight requests (30s), close the
// store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("backend", string(s.config.Backend)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Router exposes the configured router; used by tests to drive the full
// stack through httptest without binding a port.
func (s *Server) Router() http.Handler {
	return s.router
}
