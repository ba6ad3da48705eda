// Package main is the entry point for the signaldesk server. It reads
// configuration, builds the server, and runs it; everything else lives
// in internal packages.
package main

import (
	"log/slog"
	"os"

	"github.com/tmirzaev/signaldesk/internal/config"
	"github.com/tmirzaev/signaldesk/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to build server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
