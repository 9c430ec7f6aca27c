// Package main точка входа expiry-scheduler: события об окончании премиум-подписок.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/antivirus-core/internal/app/scheduler"
	"github.com/magabrotheeeer/antivirus-core/internal/config"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/logger"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
)

func main() {
	cfg := config.MustLoadScheduler()
	log := logger.New(cfg.Env, os.Stdout)

	log.Info("starting expiry-scheduler",
		slog.String("env", cfg.Env),
		slog.Duration("interval", cfg.ExpiryCheckInterval),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := scheduler.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize scheduler app", sl.Err(err))
		os.Exit(1)
	}

	app.Run(ctx)
	log.Info("expiry-scheduler stopped")
}
