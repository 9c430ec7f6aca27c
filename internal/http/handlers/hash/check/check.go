// Package check реализует HTTP-обработчики проверки хеша по базе сигнатур:
// прямой запрос в хранилище и запрос через кеш вердиктов.
package check

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/antivirus-core/internal/http/response"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
	"github.com/magabrotheeeer/antivirus-core/internal/services/signature"
)

// Service проверка хеша.
type Service interface {
	Check(ctx context.Context, hash string) (models.Verdict, error)
	CheckCached(ctx context.Context, hash string) (models.Verdict, bool, error)
}

// CachedResponse ответ GET /hash/check/cached/{hash}.
type CachedResponse struct {
	models.Verdict
	Cached bool `json:"cached"`
}

// Handler обработчик проверки хеша.
type Handler struct {
	log     *slog.Logger
	service Service
	cached  bool
}

// New создаёт обработчик GET /hash/check/{hash}.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// NewCached создаёт обработчик GET /hash/check/cached/{hash}.
func NewCached(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, cached: true}
}

// ServeHTTP проверяет хеш.
//
// @Summary      Проверить хеш
// @Tags         hash
// @Produce      json
// @Param        hash path string true "MD5, SHA-1 или SHA-256 в hex"
// @Success      200 {object} models.Verdict
// @Failure      400 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Router       /hash/check/{hash} [get]
// @Router       /hash/check/cached/{hash} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.hash.check.ServeHTTP"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Bool("cached_endpoint", h.cached),
	)

	hash := chi.URLParam(r, "hash")

	var (
		v        models.Verdict
		fromHits bool
		err      error
	)
	if h.cached {
		v, fromHits, err = h.service.CheckCached(r.Context(), hash)
	} else {
		v, err = h.service.Check(r.Context(), hash)
	}
	if err != nil {
		if errors.Is(err, signature.ErrInvalidHash) {
			log.Info("invalid hash format", sl.Hash(hash), slog.Int("length", len(hash)))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid hash format"))
			return
		}
		log.Error("failed to check hash", sl.Hash(hash), sl.Err(err))
		render.Status(r, response.StoreStatus(err))
		render.JSON(w, r, response.StoreError(err))
		return
	}

	if h.cached {
		render.JSON(w, r, CachedResponse{Verdict: v, Cached: fromHits})
		return
	}
	render.JSON(w, r, v)
}
