// Package record реализует HTTP-обработчик добавления записи в историю сканирований.
package record

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

// Service запись истории.
type Service interface {
	Record(ctx context.Context, req models.ScanRequest) (int64, error)
}

// Handler обработчик POST /scan/history.
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

// ServeHTTP добавляет запись о сканировании.
//
// @Summary      Добавить запись в историю сканирований
// @Tags         scan
// @Accept       json
// @Produce      json
// @Param        request body models.ScanRequest true "Результат сканирования"
// @Success      200 {object} response.SuccessResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /scan/history [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.scan.record.ServeHTTP"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.ScanRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "JSON body required"
		}
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(msg))
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

	if _, err := h.service.Record(r.Context(), req); err != nil {
		log.Error("failed to record scan", slog.String("email", req.Email), sl.Err(err))
		render.Status(r, response.StoreStatus(err))
		render.JSON(w, r, response.StoreError(err))
		return
	}

	render.JSON(w, r, response.OK("scan history added"))
}
