// Package webhookserver собирает HTTP-сервис: хранилище, кеш, лимитер, вебхуки и обработчики.
package webhookserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/antivirus-core/internal/cache"
	"github.com/magabrotheeeer/antivirus-core/internal/config"
	_ "github.com/magabrotheeeer/antivirus-core/internal/docs" // swagger
	"github.com/magabrotheeeer/antivirus-core/internal/http/middlewarectx"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/metrics"
	"github.com/magabrotheeeer/antivirus-core/internal/migrations"
	"github.com/magabrotheeeer/antivirus-core/internal/paymentprovider"
	"github.com/magabrotheeeer/antivirus-core/internal/rabbitmq"
	"github.com/magabrotheeeer/antivirus-core/internal/ratelimit"
	"github.com/magabrotheeeer/antivirus-core/internal/services/scan"
	"github.com/magabrotheeeer/antivirus-core/internal/services/signature"
	"github.com/magabrotheeeer/antivirus-core/internal/services/subscription"
	webhooksvc "github.com/magabrotheeeer/antivirus-core/internal/services/webhook"
	"github.com/magabrotheeeer/antivirus-core/internal/storage/repository"
)

const (
	shutdownTimeout = 15 * time.Second
	sweepInterval   = time.Minute
)

// App webhook-сервер со всеми зависимостями.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	sweeper  *ratelimit.Memory
	redis    *redis.Client
	amqpConn *amqp.Connection
	amqpCh   *amqp.Channel
}

// New создаёт хранилище, применяет миграции и собирает обработчики.
// Redis и RabbitMQ подключаются, только если заданы их адреса.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.webhookserver.New"

	db, err := repository.New(cfg.DatabaseFile, cfg.AcquireTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a := &App{logger: logger, db: db}

	var (
		verdicts signature.Cache
		limiter  middlewarectx.Limiter
	)
	if cfg.AddressRedis != "" {
		a.redis, err = cache.Connect(ctx, cfg.RedisConnection)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		verdicts = cache.NewRedis(a.redis, cfg.MaxCacheSize, cfg.CacheTTL.Duration())
		limiter = ratelimit.NewRedis(a.redis, ratelimit.DefaultWindow)
		logger.Info("using redis for verdict cache and rate limits", slog.String("address", cfg.AddressRedis))
	} else {
		verdicts = cache.NewMemory(cfg.MaxCacheSize, cfg.CacheTTL.Duration())
		a.sweeper = ratelimit.NewMemory(ratelimit.DefaultWindow)
		limiter = a.sweeper
	}

	m := metrics.New()

	var mutatorOpts []subscription.Option
	if cfg.RabbitMQURL != "" {
		publisher, err := a.connectNotifier(cfg)
		if err != nil {
			// хранилище остаётся источником истины, сервер работает без уведомлений
			logger.Warn("subscription notifications disabled", sl.Err(err))
		} else {
			mutatorOpts = append(mutatorOpts, subscription.WithNotifier(publisher))
		}
	}

	provider := paymentprovider.NewClient(cfg.Stripe.SecretKey, cfg.Stripe.APIURL, cfg.APIRequestsPerSec)
	prices := webhooksvc.NewPriceMapper(cfg.MonthlyPriceIDs, cfg.YearlyPriceIDs, cfg.StrictPriceMapping, logger, m.PriceMappingFallback)
	mutator := subscription.NewMutator(db, logger, mutatorOpts...)

	observe := func(result string) {
		m.SignatureCache.WithLabelValues(result).Inc()
	}

	router := chi.NewRouter()
	RegisterRoutes(router, routeDeps{
		cfg:           cfg,
		log:           logger,
		limiter:       limiter,
		metrics:       m,
		store:         db,
		authenticator: webhooksvc.NewAuthenticator(cfg.WebhookSecret, cfg.WebhookTolerance),
		dispatcher:    webhooksvc.NewDispatcher(provider, mutator, prices, logger),
		mutator:       mutator,
		resolver:      subscription.NewResolver(db, logger),
		signatures:    signature.New(db, verdicts, observe, logger),
		scans:         scan.New(db, cfg.MaxScanFiles, logger),
	})

	a.server = &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

func (a *App) connectNotifier(cfg *config.Config) (*rabbitmq.Publisher, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.SubscriptionTopology(cfg.Exchange, cfg.Queue, cfg.RoutingKey))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	a.amqpConn, a.amqpCh = conn, ch
	a.logger.Info("publishing subscription changes", slog.String("exchange", cfg.Exchange))
	return rabbitmq.NewPublisher(ch, cfg.Exchange, cfg.RoutingKey), nil
}

// Handler корневой HTTP-обработчик.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	if a.sweeper != nil {
		go a.sweeper.Run(ctx, sweepInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

// close освобождает соединения в обратном порядке открытия.
func (a *App) close() {
	if a.amqpCh != nil {
		if err := a.amqpCh.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
