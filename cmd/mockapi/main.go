package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/apartment-mgmt/resident/internal/config"
	"github.com/apartment-mgmt/resident/internal/mockapi"
	httpserver "github.com/apartment-mgmt/resident/internal/server/http"
	"github.com/apartment-mgmt/resident/pkg/logger"
)

func main() {
	// 1) load config
	cfg, err := config.Load()
	if err != nil {
		println("failed to load config:", err.Error())
		os.Exit(1)
	}

	// 2) init logger (sets slog.Default)
	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   "mockapi",
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting mockapi", "version", cfg.Logging.Version)

	// 3) fake backend with seeded residents
	api, err := mockapi.New(mockapi.Options{
		Config: mockapi.Config{
			Secret:         cfg.Mock.Secret,
			AccessTTL:      cfg.Mock.AccessTTL,
			RefreshTTL:     cfg.Mock.RefreshTTL,
			RotateRefresh:  cfg.Mock.RotateRefresh,
			PageSize:       cfg.Mock.PageSize,
			LoginRate:      cfg.Mock.LoginRate,
			LoginBurst:     cfg.Mock.LoginBurst,
			AllowedOrigins: cfg.Mock.AllowedOrigins,
		},
	})
	if err != nil {
		slog.Error("mockapi init failed", "err", err)
		os.Exit(1)
	}
	for _, u := range mockapi.DefaultUsers {
		slog.Info("seeded resident", "username", u.Username, "first_login", u.FirstLogin)
	}

	// 4) server init
	srv := httpserver.New(httpserver.Config{
		Addr:         cfg.Mock.HTTP.Addr,
		ReadTimeout:  cfg.Mock.HTTP.ReadTimeout,
		WriteTimeout: cfg.Mock.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Mock.HTTP.IdleTimeout,
	}, api.Handler())

	// 5) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server stopped with error", "err", err)
		os.Exit(1)
	}

	slog.Info("mockapi stopped")
}
