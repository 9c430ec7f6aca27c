// Package upsert реализует HTTP-обработчик ручного создания или изменения плана пользователя.
package upsert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/antivirus-core/internal/http/response"
	"github.com/magabrotheeeer/antivirus-core/internal/http/validation"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
)

// Service применение плана.
type Service interface {
	Apply(ctx context.Context, email string, plan models.Plan, durationDays int) error
}

// Request тело POST /user. Пустой subscription_type означает free.
type Request struct {
	Email            string `json:"email" validate:"required,account_email" example:"user@example.com"`
	SubscriptionType string `json:"subscription_type,omitempty" validate:"omitempty,plan" example:"monthly"`
}

// Handler обработчик POST /user.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validation.New(),
	}
}

// ServeHTTP создаёт или обновляет пользователя со сроком, соответствующим плану.
//
// @Summary      Создать или обновить пользователя
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body Request true "Пользователь и план"
// @Success      200 {object} response.SuccessResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Router       /user [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.upsert.ServeHTTP"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			log.Info("request body is empty")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("JSON body required"))
			return
		}
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var validateErr validator.ValidationErrors
		errors.As(err, &validateErr)
		log.Info("invalid request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(validateErr))
		return
	}

	plan := models.PlanFree
	if req.SubscriptionType != "" {
		plan = models.Plan(req.SubscriptionType)
	}

	if err := h.service.Apply(r.Context(), req.Email, plan, plan.DurationDays()); err != nil {
		log.Error("failed to update user", slog.String("email", req.Email), sl.Err(err))
		render.Status(r, response.StoreStatus(err))
		render.JSON(w, r, response.StoreError(err))
		return
	}

	log.Info("user updated", slog.String("email", req.Email), slog.String("plan", plan.String()))
	render.JSON(w, r, response.OK("user created or updated"))
}
