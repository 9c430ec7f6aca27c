// Package scheduler собирает процесс expiry-scheduler: хранилище подписок и публикация в RabbitMQ.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/antivirus-core/internal/config"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/migrations"
	"github.com/magabrotheeeer/antivirus-core/internal/rabbitmq"
	schedulerservice "github.com/magabrotheeeer/antivirus-core/internal/services/scheduler"
	"github.com/magabrotheeeer/antivirus-core/internal/storage/repository"
)

// App процесс поиска истёкших подписок.
type App struct {
	schedulerService *schedulerservice.Service
	db               *repository.Storage
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

// New открывает базу, применяет миграции и подключается к брокеру.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.scheduler.New"

	db, err := repository.New(cfg.DatabaseFile, cfg.AcquireTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	topology := rabbitmq.SubscriptionTopology(cfg.Exchange, cfg.Queue, cfg.RoutingKey)
	ch, err := rabbitmq.SetupChannel(conn, topology)
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	publisher := rabbitmq.NewPublisher(ch, cfg.Exchange, cfg.RoutingKey)

	return &App{
		schedulerService: schedulerservice.New(db, publisher, cfg.ExpiryCheckInterval, logger),
		db:               db,
		conn:             conn,
		ch:               ch,
		logger:           logger,
	}, nil
}

// Run выполняет проверки до отмены ctx и освобождает ресурсы.
func (a *App) Run(ctx context.Context) {
	a.logger.Info("expiry scheduler started")
	a.schedulerService.Run(ctx)
	a.logger.Info("expiry scheduler shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
