// Package history реализует HTTP-обработчик чтения истории сканирований пользователя.
package history

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
)

// Service чтение истории.
type Service interface {
	List(ctx context.Context, email string) ([]models.ScanEntry, error)
}

// Response ответ GET /scan/history/{email}.
type Response struct {
	Email       string             `json:"email"`
	ScanHistory []models.ScanEntry `json:"scan_history"`
	TotalScans  int                `json:"total_scans"`
}

// Handler обработчик GET /scan/history/{email}.
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

// ServeHTTP возвращает до 50 последних записей, новые первыми.
//
// @Summary      История сканирований
// @Tags         scan
// @Produce      json
// @Param        email path string true "Email пользователя"
// @Success      200 {object} Response
// @Failure      400 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Router       /scan/history/{email} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.scan.history.ServeHTTP"

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

	entries, err := h.service.List(r.Context(), email)
	if err != nil {
		log.Error("failed to list scan history", slog.String("email", email), sl.Err(err))
		render.Status(r, response.StoreStatus(err))
		render.JSON(w, r, response.StoreError(err))
		return
	}
	if entries == nil {
		entries = []models.ScanEntry{}
	}

	render.JSON(w, r, Response{
		Email:       email,
		ScanHistory: entries,
		TotalScans:  len(entries),
	})
}
