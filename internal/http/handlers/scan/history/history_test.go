package history

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/antivirus-core/internal/models"
	"github.com/magabrotheeeer/antivirus-core/internal/storage"
)

type MockService struct{ mock.Mock }

func (m *MockService) List(ctx context.Context, email string) ([]models.ScanEntry, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScanEntry), args.Error(1)
}

func serve(h *Handler, email string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/scan/history/"+email, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("email", email)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHistoryHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	date := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("записи пользователя", func(t *testing.T) {
		svc := new(MockService)
		svc.On("List", mock.Anything, "a@b.com").Return([]models.ScanEntry{
			{ID: 2, Email: "a@b.com", TargetPath: "/b", ScanType: "full", ScanDate: date},
			{ID: 1, Email: "a@b.com", TargetPath: "/a", ScanType: "quick", ScanDate: date},
		}, nil)

		w := serve(New(logger, svc), "a@b.com")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "a@b.com", resp.Email)
		assert.Equal(t, 2, resp.TotalScans)
		assert.Equal(t, "/b", resp.ScanHistory[0].TargetPath)
	})

	t.Run("пустая история", func(t *testing.T) {
		svc := new(MockService)
		svc.On("List", mock.Anything, "new@b.com").Return(nil, nil)

		w := serve(New(logger, svc), "new@b.com")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"email":"new@b.com","scan_history":[],"total_scans":0}`, w.Body.String())
	})

	t.Run("некорректный email", func(t *testing.T) {
		svc := new(MockService)
		w := serve(New(logger, svc), "bad")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("ошибка хранилища", func(t *testing.T) {
		svc := new(MockService)
		svc.On("List", mock.Anything, "a@b.com").Return(nil, storage.ErrTransaction)

		w := serve(New(logger, svc), "a@b.com")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
