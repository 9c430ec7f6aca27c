// Package sender собирает процесс notification-sender: очередь subscriptions.changed и SMTP.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/antivirus-core/internal/config"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/smtp"
	"github.com/magabrotheeeer/antivirus-core/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/antivirus-core/internal/services/sender"
)

// App процесс отправки уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	queue         string
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New подключается к брокеру и объявляет топологию событий подписок.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	topology := rabbitmq.SubscriptionTopology(cfg.Exchange, cfg.Queue, cfg.RoutingKey)
	ch, err := rabbitmq.SetupChannel(conn, topology)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		queue:         cfg.Queue,
		senderService: senderservice.New(transport, logger),
		logger:        logger,
	}, nil
}

// Run потребляет очередь до отмены ctx, дожидается начатых писем и закрывает соединение.
func (a *App) Run(ctx context.Context) error {
	consumer := rabbitmq.NewConsumer(a.ch, a.queue, a.logger, a.senderService.SendSubscriptionChange)
	if err := consumer.Start(ctx); err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", a.queue), sl.Err(err))
		return err
	}
	a.logger.Info("consuming subscription changes", slog.String("queue", a.queue))

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")
	consumer.Wait()

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}

	return nil
}
