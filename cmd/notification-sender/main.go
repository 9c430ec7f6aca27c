// Package main точка входа notification-sender: письма об изменении подписок.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/antivirus-core/internal/app/sender"
	"github.com/magabrotheeeer/antivirus-core/internal/config"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/logger"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
)

func main() {
	cfg := config.MustLoadSender()
	log := logger.New(cfg.Env, os.Stdout)

	log.Info("starting notification-sender", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := sender.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize sender app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Error("sender app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("notification-sender stopped gracefully")
}
