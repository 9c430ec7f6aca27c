// Package health реализует HTTP-обработчик проверки состояния сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
)

// Store агрегированные счётчики хранилища.
type Store interface {
	Stats(ctx context.Context) (models.Stats, error)
}

// Cache размер кеша вердиктов.
type Cache interface {
	CacheSize(ctx context.Context) int
}

// Info статические сведения о конфигурации, попадающие в ответ.
type Info struct {
	DatabaseFile     string
	StripeConfigured bool
	MaxScanFiles     int
	CacheMaxSize     int
}

// Response ответ при исправном хранилище.
type Response struct {
	Status             string `json:"status" example:"healthy"`
	Timestamp          string `json:"timestamp"`
	DatabaseFile       string `json:"database_file"`
	UsersCount         int64  `json:"users_count"`
	MalwareHashesCount int64  `json:"malware_hashes_count"`
	ScanHistoryCount   int64  `json:"scan_history_count"`
	StripeConfigured   bool   `json:"stripe_configured"`
	MaxScanFiles       int    `json:"max_scan_files"`
	CacheSize          int    `json:"cache_size"`
	CacheMaxSize       int    `json:"cache_max_size"`
}

// UnhealthyResponse ответ при ошибке хранилища.
type UnhealthyResponse struct {
	Status    string `json:"status" example:"unhealthy"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
}

// Handler обработчик GET /health.
type Handler struct {
	log   *slog.Logger
	store Store
	cache Cache
	info  Info
	now   func() time.Time
}

// New создаёт Handler.
func New(log *slog.Logger, store Store, cache Cache, info Info) *Handler {
	return &Handler{
		log:   log,
		store: store,
		cache: cache,
		info:  info,
		now:   time.Now,
	}
}

// ServeHTTP возвращает счётчики хранилища и флаги конфигурации.
//
// @Summary      Состояние сервиса
// @Tags         health
// @Produce      json
// @Success      200 {object} Response
// @Failure      500 {object} UnhealthyResponse
// @Router       /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health.ServeHTTP"

	ts := h.now().UTC().Format(time.RFC3339)

	st, err := h.store.Stats(r.Context())
	if err != nil {
		h.log.Error("health check failed",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, UnhealthyResponse{
			Status:    "unhealthy",
			Timestamp: ts,
			Error:     "store unavailable",
		})
		return
	}

	render.JSON(w, r, Response{
		Status:             "healthy",
		Timestamp:          ts,
		DatabaseFile:       h.info.DatabaseFile,
		UsersCount:         st.Users,
		MalwareHashesCount: st.Signatures,
		ScanHistoryCount:   st.ScanHistory,
		StripeConfigured:   h.info.StripeConfigured,
		MaxScanFiles:       h.info.MaxScanFiles,
		CacheSize:          h.cache.CacheSize(r.Context()),
		CacheMaxSize:       h.info.CacheMaxSize,
	})
}
