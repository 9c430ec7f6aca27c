// Package get реализует HTTP-обработчик чтения действующего плана пользователя.
package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/antivirus-core/internal/http/response"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
	"github.com/magabrotheeeer/antivirus-core/internal/services/subscription"
)

// Service вычисление действующего плана.
type Service interface {
	Resolve(ctx context.Context, email string) (subscription.Status, error)
}

// Response ответ GET /user/{email}.
type Response struct {
	Email              string      `json:"email" example:"user@example.com"`
	SubscriptionStatus models.Plan `json:"subscription_status" example:"yearly"`
	IsPremium          bool        `json:"is_premium" example:"true"`
}

// Handler обработчик GET /user/{email}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP возвращает план пользователя.
//
// @Summary      Статус подписки
// @Tags         user
// @Produce      json
// @Param        email path string true "Email пользователя"
// @Success      200 {object} Response
// @Failure      400 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Router       /user/{email} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.get.ServeHTTP"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	email := chi.URLParam(r, "email")
	if !models.ValidEmail(email) {
		log.Info("invalid email")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid email"))
		return
	}

	st, err := h.service.Resolve(r.Context(), email)
	if err != nil {
		log.Error("failed to resolve subscription", slog.String("email", email), sl.Err(err))
		render.Status(r, response.StoreStatus(err))
		render.JSON(w, r, response.StoreError(err))
		return
	}

	render.JSON(w, r, Response{
		Email:              email,
		SubscriptionStatus: st.Plan,
		IsPremium:          st.IsPremium,
	})
}
