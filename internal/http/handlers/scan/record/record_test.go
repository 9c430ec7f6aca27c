package record

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/antivirus-core/internal/models"
	"github.com/magabrotheeeer/antivirus-core/internal/storage"
)

type MockService struct{ mock.Mock }

func (m *MockService) Record(ctx context.Context, req models.ScanRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}

func TestRecordHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "полная запись",
			body: `{"email":"a@b.com","target_path":"/home","scan_type":"full","files_scanned":10,"threats_detected":1,"duration_seconds":2.5}`,
			setupMock: func(m *MockService) {
				m.On("Record", mock.Anything, models.ScanRequest{
					Email: "a@b.com", TargetPath: "/home", ScanType: "full",
					FilesScanned: 10, ThreatsDetected: 1, DurationSeconds: 2.5,
				}).Return(int64(1), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"success":true`,
		},
		{
			name: "числовые поля по умолчанию",
			body: `{"email":"a@b.com","target_path":"/home","scan_type":"quick"}`,
			setupMock: func(m *MockService) {
				m.On("Record", mock.Anything, models.ScanRequest{Email: "a@b.com", TargetPath: "/home", ScanType: "quick"}).
					Return(int64(2), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"success":true`,
		},
		{
			name:           "нет пути",
			body:           `{"email":"a@b.com","scan_type":"quick"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field TargetPath is a required field`,
		},
		{
			name:           "отрицательное число файлов",
			body:           `{"email":"a@b.com","target_path":"/","scan_type":"quick","files_scanned":-1}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field FilesScanned must be at least 0`,
		},
		{
			name:           "отрицательная длительность",
			body:           `{"email":"a@b.com","target_path":"/","scan_type":"quick","duration_seconds":-0.5}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field DurationSeconds must be at least 0`,
		},
		{
			name:           "некорректный email",
			body:           `{"email":"nope","target_path":"/","scan_type":"quick"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field Email must be a valid email`,
		},
		{
			name: "хранилище недоступно",
			body: `{"email":"a@b.com","target_path":"/","scan_type":"quick"}`,
			setupMock: func(m *MockService) {
				m.On("Record", mock.Anything, mock.Anything).Return(int64(0), storage.ErrConnection)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"error":"service temporarily unavailable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)
			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/scan/history", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
