package webhookserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/antivirus-core/internal/config"
	"github.com/magabrotheeeer/antivirus-core/internal/http/handlers/hash/add"
	"github.com/magabrotheeeer/antivirus-core/internal/http/handlers/hash/check"
	"github.com/magabrotheeeer/antivirus-core/internal/http/handlers/health"
	"github.com/magabrotheeeer/antivirus-core/internal/http/handlers/scan/history"
	"github.com/magabrotheeeer/antivirus-core/internal/http/handlers/scan/record"
	"github.com/magabrotheeeer/antivirus-core/internal/http/handlers/user/get"
	"github.com/magabrotheeeer/antivirus-core/internal/http/handlers/user/upsert"
	"github.com/magabrotheeeer/antivirus-core/internal/http/handlers/webhook"
	"github.com/magabrotheeeer/antivirus-core/internal/http/middlewarectx"
	"github.com/magabrotheeeer/antivirus-core/internal/metrics"
	"github.com/magabrotheeeer/antivirus-core/internal/services/scan"
	"github.com/magabrotheeeer/antivirus-core/internal/services/signature"
	"github.com/magabrotheeeer/antivirus-core/internal/services/subscription"
	webhooksvc "github.com/magabrotheeeer/antivirus-core/internal/services/webhook"
	"github.com/magabrotheeeer/antivirus-core/internal/storage/repository"
)

// Поверхности API, у каждой свой счётчик лимита.
const (
	surfaceWebhook         = "webhook"
	surfaceUserRead        = "user_read"
	surfaceUserWrite       = "user_write"
	surfaceHashCheck       = "hash_check"
	surfaceHashCheckCached = "hash_check_cached"
	surfaceHashAdd         = "hash_add"
	surfaceScanWrite       = "scan_write"
	surfaceScanRead        = "scan_read"
	surfaceHealth          = "health"
)

// routeDeps всё, что нужно обработчикам.
type routeDeps struct {
	cfg           *config.Config
	log           *slog.Logger
	limiter       middlewarectx.Limiter
	metrics       *metrics.Metrics
	store         *repository.Storage
	authenticator *webhooksvc.Authenticator
	dispatcher    *webhooksvc.Dispatcher
	mutator       *subscription.Mutator
	resolver      *subscription.Resolver
	signatures    *signature.Service
	scans         *scan.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
// middleware.URLFormat не подключается: он отрезал бы ".com" от /user/{email}.
func RegisterRoutes(r chi.Router, d routeDeps) {
	// Глобальные middleware
	r.Use(middleware.RequestID)
	if d.cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
	)

	limits := d.cfg.RateLimits
	limited := func(surface string, limit int, h http.Handler) http.Handler {
		return middlewarectx.RateLimit(d.log, d.limiter, surface, limit, d.metrics.RateLimited)(h)
	}

	r.Method(http.MethodPost, "/webhook",
		limited(surfaceWebhook, limits.Webhook, webhook.New(d.log, d.authenticator, d.dispatcher, d.metrics.WebhookEvents)))

	r.Method(http.MethodGet, "/user/{email}",
		limited(surfaceUserRead, limits.UserRead, get.New(d.log, d.resolver)))
	r.Method(http.MethodPost, "/user",
		limited(surfaceUserWrite, limits.UserWrite, upsert.New(d.log, d.mutator)))

	r.Method(http.MethodGet, "/hash/check/cached/{hash}",
		limited(surfaceHashCheckCached, limits.HashRead, check.NewCached(d.log, d.signatures)))
	r.Method(http.MethodGet, "/hash/check/{hash}",
		limited(surfaceHashCheck, limits.HashRead, check.New(d.log, d.signatures)))
	r.Method(http.MethodPost, "/hash/add",
		limited(surfaceHashAdd, limits.HashAdd, add.New(d.log, d.signatures)))

	r.Method(http.MethodPost, "/scan/history",
		limited(surfaceScanWrite, limits.ScanWrite, record.New(d.log, d.scans)))
	r.Method(http.MethodGet, "/scan/history/{email}",
		limited(surfaceScanRead, limits.ScanRead, history.New(d.log, d.scans)))

	r.Method(http.MethodGet, "/health",
		limited(surfaceHealth, limits.Health, health.New(d.log, d.store, d.signatures, health.Info{
			DatabaseFile:     d.store.Path(),
			StripeConfigured: d.cfg.StripeConfigured(),
			MaxScanFiles:     d.cfg.MaxScanFiles,
			CacheMaxSize:     d.cfg.MaxCacheSize,
		})))

	r.Handle("/metrics", d.metrics.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
