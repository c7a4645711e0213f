package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/ammo/internal/config"
	"github.com/JonMunkholm/ammo/internal/core"
	"github.com/JonMunkholm/ammo/internal/logging"
	"github.com/JonMunkholm/ammo/internal/store"
	"github.com/JonMunkholm/ammo/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_driver", cfg.Store.Driver,
		"coercion", cfg.Ingest.Coercion,
		"ingest_max_concurrent", cfg.Ingest.MaxConcurrent,
		"require_api_key", cfg.Security.RequireAPIKey,
	)

	opener, err := store.NewOpener(cfg.Store)
	if err != nil {
		slog.Error("failed to configure store", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service := core.NewService(opener, cfg.ServiceOptions())

	// Create the table up front so the first page load does not race a load
	if err := service.Initialize(ctx); err != nil {
		slog.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg)
	if err := server.Run(ctx); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
