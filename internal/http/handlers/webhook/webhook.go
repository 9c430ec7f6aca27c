// Package webhook реализует HTTP-обработчик событий платёжного провайдера.
//
// Тело читается целиком до разбора: подпись считается по исходным байтам.
// Ошибки аутентификации дают 400, ошибки обработки события 500, чтобы провайдер повторил доставку.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/antivirus-core/internal/http/response"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	webhooksvc "github.com/magabrotheeeer/antivirus-core/internal/services/webhook"
)

// MaxBodyBytes максимальный размер тела события.
const MaxBodyBytes = 1 << 20

// Authenticator проверяет подпись и свежесть события.
type Authenticator interface {
	Authenticate(payload []byte, header string) (*webhooksvc.Event, error)
}

// Dispatcher обрабатывает проверенное событие.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *webhooksvc.Event) error
}

// Handler обработчик POST /webhook.
type Handler struct {
	log        *slog.Logger
	auth       Authenticator
	dispatcher Dispatcher
	events     *prometheus.CounterVec
}

// New создаёт Handler. events может быть nil.
func New(log *slog.Logger, auth Authenticator, dispatcher Dispatcher, events *prometheus.CounterVec) *Handler {
	return &Handler{
		log:        log,
		auth:       auth,
		dispatcher: dispatcher,
		events:     events,
	}
}

// ServeHTTP принимает событие провайдера.
//
// @Summary      Вебхук платёжного провайдера
// @Description  Проверяет подпись Stripe-Signature и применяет изменение подписки
// @Tags         webhook
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Подпись события"
// @Success      200 {object} response.SuccessResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook.ServeHTTP"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		h.count("unknown", "invalid_payload")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payload"))
		return
	}

	event, err := h.auth.Authenticate(payload, r.Header.Get(webhooksvc.SignatureHeader))
	if err != nil {
		msg, result := authFailure(err)
		log.Warn("webhook rejected", slog.String("reason", result), sl.Err(err))
		h.count("unknown", result)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log = log.With(slog.String("event_id", event.ID), slog.String("event_type", event.Type))
	log.Info("webhook received")

	if err = h.dispatcher.Dispatch(r.Context(), event); err != nil {
		log.Error("failed to process webhook", sl.Err(err))
		h.count(event.Type, "error")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("server error"))
		return
	}

	h.count(event.Type, "ok")
	render.JSON(w, r, response.OK(""))
}

func (h *Handler) count(eventType, result string) {
	if h.events != nil {
		h.events.WithLabelValues(eventType, result).Inc()
	}
}

func authFailure(err error) (msg, result string) {
	switch {
	case errors.Is(err, webhooksvc.ErrMissingSignature):
		return "missing signature", "missing_signature"
	case errors.Is(err, webhooksvc.ErrInvalidSignature):
		return "invalid signature", "invalid_signature"
	case errors.Is(err, webhooksvc.ErrStaleEvent):
		return "webhook too old", "stale_event"
	default:
		return "invalid payload", "invalid_payload"
	}
}
