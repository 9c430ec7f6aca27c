// Package main Antivirus Core API
//
// @title           Antivirus Core API
// @version         1.0
// @description     Подписки, проверка сигнатур и история сканирований антивируса.
// @BasePath        /
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/antivirus-core/internal/app/webhookserver"
	"github.com/magabrotheeeer/antivirus-core/internal/config"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/logger"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env, os.Stdout)

	log.Info("starting webhook-server", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := webhookserver.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("webhook-server stopped gracefully")
}
