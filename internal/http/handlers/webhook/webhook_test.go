package webhook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/antivirus-core/internal/models"
	webhooksvc "github.com/magabrotheeeer/antivirus-core/internal/services/webhook"
	"github.com/magabrotheeeer/antivirus-core/internal/storage"
)

const secret = "whsec_test"

type MutatorMock struct{ mock.Mock }

func (m *MutatorMock) Apply(ctx context.Context, email string, plan models.Plan, durationDays int) error {
	return m.Called(ctx, email, plan, durationDays).Error(0)
}

type ProviderMock struct{ mock.Mock }

func (m *ProviderMock) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	args := m.Called(ctx, customerID)
	return args.String(0), args.Error(1)
}

func (m *ProviderMock) SubscriptionPriceID(ctx context.Context, subscriptionID string) (string, error) {
	args := m.Called(ctx, subscriptionID)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cancelPayload(created time.Time) string {
	return fmt.Sprintf(`{"id":"evt_1","type":"customer.subscription.deleted","created":%d,"data":{"object":{"customer":"cus_1"}}}`,
		created.Unix())
}

func TestWebhookHandler(t *testing.T) {
	now := time.Now()
	fresh := cancelPayload(now)
	stale := cancelPayload(now.Add(-10 * time.Minute))

	tests := []struct {
		name           string
		body           string
		header         string
		setupMock      func(p *ProviderMock, m *MutatorMock)
		expectedStatus int
		expectedBody   string
		expectedResult string
	}{
		{
			name:   "отмена подписки",
			body:   fresh,
			header: webhooksvc.Sign(secret, []byte(fresh), now),
			setupMock: func(p *ProviderMock, m *MutatorMock) {
				p.On("CustomerEmail", mock.Anything, "cus_1").Return("a@b.com", nil)
				m.On("Apply", mock.Anything, "a@b.com", models.PlanFree, 0).Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true}`,
			expectedResult: "ok",
		},
		{
			name:           "нет подписи",
			body:           fresh,
			setupMock:      func(*ProviderMock, *MutatorMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"missing signature"}`,
			expectedResult: "missing_signature",
		},
		{
			name:           "неверная подпись",
			body:           fresh,
			header:         webhooksvc.Sign("wrong", []byte(fresh), now),
			setupMock:      func(*ProviderMock, *MutatorMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid signature"}`,
			expectedResult: "invalid_signature",
		},
		{
			name:           "испорченный заголовок",
			body:           fresh,
			header:         "t=abc,v1=zz",
			setupMock:      func(*ProviderMock, *MutatorMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid signature"}`,
			expectedResult: "invalid_signature",
		},
		{
			name:           "устаревшее событие",
			body:           stale,
			header:         webhooksvc.Sign(secret, []byte(stale), now),
			setupMock:      func(*ProviderMock, *MutatorMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"webhook too old"}`,
			expectedResult: "stale_event",
		},
		{
			name:           "тело не JSON",
			body:           "oops",
			header:         webhooksvc.Sign(secret, []byte("oops"), now),
			setupMock:      func(*ProviderMock, *MutatorMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid payload"}`,
			expectedResult: "invalid_payload",
		},
		{
			name:   "ошибка хранилища",
			body:   fresh,
			header: webhooksvc.Sign(secret, []byte(fresh), now),
			setupMock: func(p *ProviderMock, m *MutatorMock) {
				p.On("CustomerEmail", mock.Anything, "cus_1").Return("a@b.com", nil)
				m.On("Apply", mock.Anything, "a@b.com", models.PlanFree, 0).Return(storage.ErrConnection)
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"server error"}`,
			expectedResult: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(ProviderMock)
			mutator := new(MutatorMock)
			tt.setupMock(provider, mutator)

			log := newNoopLogger()
			prices := webhooksvc.NewPriceMapper(nil, nil, false, log, nil)
			events := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "events"}, []string{"type", "result"})
			handler := New(log,
				webhooksvc.NewAuthenticator(secret, webhooksvc.DefaultTolerance),
				webhooksvc.NewDispatcher(provider, mutator, prices, log),
				events,
			)

			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(tt.body))
			if tt.header != "" {
				req.Header.Set(webhooksvc.SignatureHeader, tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())

			var total float64
			for _, typ := range []string{"unknown", webhooksvc.EventSubscriptionCancelled} {
				total += testutil.ToFloat64(events.WithLabelValues(typ, tt.expectedResult))
			}
			assert.Equal(t, 1.0, total)

			mutator.AssertExpectations(t)
			if tt.expectedStatus == http.StatusBadRequest {
				mutator.AssertNumberOfCalls(t, "Apply", 0)
				provider.AssertNumberOfCalls(t, "CustomerEmail", 0)
			}
		})
	}
}
