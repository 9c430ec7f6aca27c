// Package middlewarectx содержит HTTP middleware сервиса.
//
// RateLimit ограничивает число запросов одного клиента к одной поверхности API
// за скользящее окно. Лимитер передаётся снаружи и создаётся один раз при старте.
package middlewarectx

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/antivirus-core/internal/http/response"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
)

// Limiter решает, пропустить ли запрос клиента key при лимите limit за окно.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int) (bool, error)
}

// RateLimit возвращает middleware, ограничивающий поверхность surface до limit запросов
// в окно с одного адреса. Ошибка лимитера пропускает запрос: недоступность общего
// хранилища лимитов не должна останавливать вебхуки. rejected может быть nil.
func RateLimit(log *slog.Logger, limiter Limiter, surface string, limit int, rejected *prometheus.CounterVec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RateLimit"

			client := ClientIP(r)
			ok, err := limiter.Allow(r.Context(), surface+":"+client, limit)
			if err != nil {
				log.Error("rate limiter unavailable, request allowed",
					slog.String("op", op),
					slog.String("surface", surface),
					sl.Err(err),
				)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				log.Warn("too many requests",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("surface", surface),
					slog.String("client", client),
				)
				if rejected != nil {
					rejected.WithLabelValues(surface).Inc()
				}
				w.Header().Set("Retry-After", "60")
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP адрес клиента без порта. Заголовки прокси учитываются, только если
// перед обработчиком стоит middleware.RealIP.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
