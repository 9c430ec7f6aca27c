// Package add реализует HTTP-обработчик добавления сигнатуры.
package add

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

// Service добавление сигнатуры.
type Service interface {
	Add(ctx context.Context, sig models.Signature) error
}

// Request тело POST /hash/add. Отсутствующие поля получают значения по умолчанию.
type Request struct {
	Hash        string  `json:"hash" validate:"required,signature_hash" example:"e99a18c428cb38d5f260853678922e03"`
	MalwareName *string `json:"malware_name,omitempty" validate:"omitempty,min=1,max=255" example:"Trojan.Generic"`
	RiskLevel   *int    `json:"risk_level,omitempty" validate:"omitempty,min=1,max=10" example:"7"`
}

// Handler обработчик POST /hash/add.
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

// ServeHTTP добавляет или заменяет сигнатуру.
//
// @Summary      Добавить сигнатуру
// @Tags         hash
// @Accept       json
// @Produce      json
// @Param        request body Request true "Сигнатура"
// @Success      200 {object} response.SuccessResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /hash/add [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.hash.add.ServeHTTP"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
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

	sig := models.Signature{
		HashValue:   req.Hash,
		MalwareName: models.DefaultMalwareName,
		RiskLevel:   models.DefaultRiskLevel,
	}
	if req.MalwareName != nil {
		sig.MalwareName = *req.MalwareName
	}
	if req.RiskLevel != nil {
		sig.RiskLevel = *req.RiskLevel
	}

	if err := h.service.Add(r.Context(), sig); err != nil {
		log.Error("failed to add signature", sl.Hash(req.Hash), sl.Err(err))
		render.Status(r, response.StoreStatus(err))
		render.JSON(w, r, response.StoreError(err))
		return
	}

	render.JSON(w, r, response.OK("hash added"))
}
