package webhookserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/antivirus-core/internal/config"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
	"github.com/magabrotheeeer/antivirus-core/internal/services/subscription"
	webhooksvc "github.com/magabrotheeeer/antivirus-core/internal/services/webhook"
)

const testWebhookSecret = "whsec_test"

// newProviderServer отвечает на запросы покупателей и подписок как API провайдера.
func newProviderServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/customers/cus_lifetime", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"id":"cus_lifetime","email":"lifetime@example.com"}`)
	})
	mux.HandleFunc("/v1/subscriptions/sub_yearly", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"id":"sub_yearly","status":"active","items":{"data":[{"price":{"id":"price_yearly_2025"}}]}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, apiURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{Env: "local"}
	cfg.Stripe = config.Stripe{
		SecretKey:         "sk_test",
		WebhookSecret:     testWebhookSecret,
		APIURL:            apiURL,
		APIRequestsPerSec: 100,
		WebhookTolerance:  webhooksvc.DefaultTolerance,
	}
	cfg.Storage = config.Storage{
		DatabaseFile:   filepath.Join(t.TempDir(), "users.db"),
		AcquireTimeout: 5 * time.Second,
	}
	cfg.Scan = config.Scan{MaxScanFiles: 1000}
	cfg.HashCache = config.HashCache{MaxCacheSize: 100, CacheTTL: config.Seconds(time.Minute)}
	cfg.HTTPServer = config.HTTPServer{Port: 0, TimeoutHTTP: 5 * time.Second, IdleTimeout: time.Minute}
	cfg.RateLimits = config.RateLimits{
		Webhook: 30, UserRead: 60, UserWrite: 10, HashRead: 60,
		HashAdd: 5, ScanWrite: 20, ScanRead: 60, Health: 60,
	}
	return cfg
}

func newTestApp(t *testing.T) (*App, http.Handler) {
	t.Helper()
	provider := newProviderServer(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	app, err := New(context.Background(), testConfig(t, provider.URL), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })
	return app, app.Handler()
}

func postEvent(t *testing.T, h http.Handler, eventType string, object string) *httptest.ResponseRecorder {
	t.Helper()
	now := time.Now()
	payload := []byte(fmt.Sprintf(`{"id":"evt_%d","type":%q,"created":%d,"data":{"object":%s}}`,
		now.UnixNano(), eventType, now.Unix(), object))

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set(webhooksvc.SignatureHeader, webhooksvc.Sign(testWebhookSecret, payload, now))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func getUser(t *testing.T, h http.Handler, email string) map[string]any {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/user/"+email, nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestWebhook_CheckoutWithYearlyPrice(t *testing.T) {
	app, h := newTestApp(t)

	rr := postEvent(t, h, webhooksvc.EventCheckoutCompleted,
		`{"customer_details":{"email":"yearly@example.com"},"subscription":"sub_yearly"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := getUser(t, h, "yearly@example.com")
	assert.Equal(t, "yearly@example.com", body["email"])
	assert.Equal(t, "yearly", body["subscription_status"])
	assert.Equal(t, true, body["is_premium"])

	st, err := subscription.NewResolver(app.db, slog.New(slog.NewTextHandler(io.Discard, nil))).
		Resolve(context.Background(), "yearly@example.com")
	require.NoError(t, err)
	require.NotNil(t, st.ExpiryDate)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 365), *st.ExpiryDate, time.Minute)
}

func TestWebhook_CancelLifetime(t *testing.T) {
	_, h := newTestApp(t)

	// lifetime через ручной эндпоинт
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user",
		strings.NewReader(`{"email":"lifetime@example.com","subscription_type":"lifetime"}`)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "lifetime", getUser(t, h, "lifetime@example.com")["subscription_status"])

	rr = postEvent(t, h, webhooksvc.EventSubscriptionCancelled,
		`{"customer":"cus_lifetime","status":"canceled"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := getUser(t, h, "lifetime@example.com")
	assert.Equal(t, string(models.PlanFree), body["subscription_status"])
	assert.Equal(t, false, body["is_premium"])
}

func TestWebhook_BadSignatureDoesNotMutate(t *testing.T) {
	_, h := newTestApp(t)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","created":1,"data":{"object":{"customer_details":{"email":"x@example.com"}}}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set(webhooksvc.SignatureHeader, "t=1,v1=deadbeef")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	body := getUser(t, h, "x@example.com")
	assert.Equal(t, "free", body["subscription_status"])
}

func TestRateLimit_UserWrite(t *testing.T) {
	_, h := newTestApp(t)

	for i := range 10 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user",
			strings.NewReader(`{"email":"limit@example.com","subscription_type":"monthly"}`)))
		require.Equal(t, http.StatusOK, rr.Code, "request %d", i+1)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user",
		strings.NewReader(`{"email":"limit@example.com","subscription_type":"monthly"}`)))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// чтение считается отдельно
	assert.Equal(t, "monthly", getUser(t, h, "limit@example.com")["subscription_status"])
}

func TestHashCheck_Validation(t *testing.T) {
	_, h := newTestApp(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/hash/check/"+strings.Repeat("a", 31), nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/hash/check/e99a18c428cb38d5f260853678922e03", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var v models.Verdict
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.True(t, v.IsMalicious)
}

func TestHealthAndMetrics(t *testing.T) {
	_, h := newTestApp(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(3), body["malware_hashes_count"])
	assert.Equal(t, true, body["stripe_configured"])

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}
