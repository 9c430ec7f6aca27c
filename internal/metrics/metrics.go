// Package metrics описывает счётчики Prometheus сервиса.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "antivirus"

// Metrics набор счётчиков, зарегистрированных в собственном реестре.
type Metrics struct {
	registry *prometheus.Registry

	WebhookEvents        *prometheus.CounterVec
	RateLimited          *prometheus.CounterVec
	SignatureCache       *prometheus.CounterVec
	PriceMappingFallback prometheus.Counter
}

// New создаёт реестр и регистрирует в нём счётчики сервиса и стандартные коллекторы процесса.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		WebhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Payment webhook events by type and result.",
		}, []string{"type", "result"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"surface"}),
		SignatureCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signature_cache_lookups_total",
			Help:      "Signature verdict cache lookups by result.",
		}, []string{"result"}),
		PriceMappingFallback: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_mapping_fallback_total",
			Help:      "Subscription price ids that matched no known plan and fell back to monthly.",
		}),
	}
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry возвращает реестр для тестов и дополнительных коллекторов.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
