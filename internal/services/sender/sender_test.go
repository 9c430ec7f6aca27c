package sender

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/antivirus-core/internal/lib/smtp"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
)

type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) Dial(ctx context.Context) (smtp.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Session), args.Error(1)
}

func (m *MockDialer) Sender() string {
	args := m.Called()
	return args.String(0)
}

type MockSession struct {
	mock.Mock
	body bytes.Buffer
}

func (m *MockSession) Mail(from string) error {
	return m.Called(from).Error(0)
}

func (m *MockSession) Rcpt(to string) error {
	return m.Called(to).Error(0)
}

func (m *MockSession) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSession) Close() error {
	return m.Called().Error(0)
}

func (m *MockSession) Quit() error {
	return m.Called().Error(0)
}

type writer struct {
	buf *bytes.Buffer
}

func (w writer) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w writer) Close() error                { return nil }

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func successfulDelivery(d *MockDialer, recipient string) *MockSession {
	session := new(MockSession)

	d.On("Sender").Return("noreply@example.com")
	d.On("Dial", mock.Anything).Return(session, nil).Once()
	session.On("Mail", "noreply@example.com").Return(nil).Once()
	session.On("Rcpt", recipient).Return(nil).Once()
	session.On("Data").Return(writer{buf: &session.body}, nil).Once()
	session.On("Quit").Return(nil).Once()
	session.On("Close").Return(nil).Once()
	return session
}

func TestService_SendSubscriptionChange(t *testing.T) {
	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockDialer)
		expectedError bool
		errorMessage  string
	}{
		{
			name: "премиум активирован",
			body: []byte(`{"email":"user@example.com","plan":"monthly","is_premium":true,"expiry_date":"2026-11-16T12:00:00Z","changed_at":"2026-10-17T12:00:00Z"}`),
			setupMocks: func(d *MockDialer) {
				successfulDelivery(d, "user@example.com")
			},
		},
		{
			name: "подписка завершена",
			body: []byte(`{"email":"user@example.com","plan":"free","is_premium":false,"expiry_date":"2026-10-17T12:00:00Z","changed_at":"2026-10-17T12:00:00Z"}`),
			setupMocks: func(d *MockDialer) {
				successfulDelivery(d, "user@example.com")
			},
		},
		{
			name:          "невалидный JSON",
			body:          []byte(`invalid json`),
			setupMocks:    func(_ *MockDialer) {},
			expectedError: true,
			errorMessage:  "error unmarshalling message",
		},
		{
			name:       "сообщение без email отбрасывается",
			body:       []byte(`{"plan":"free"}`),
			setupMocks: func(_ *MockDialer) {},
		},
		{
			name: "ошибка подключения к SMTP",
			body: []byte(`{"email":"user@example.com","plan":"free"}`),
			setupMocks: func(d *MockDialer) {
				d.On("Sender").Return("noreply@example.com")
				d.On("Dial", mock.Anything).Return(nil, errors.New("connection error")).Once()
			},
			expectedError: true,
			errorMessage:  "connection error",
		},
		{
			name: "ошибка RCPT",
			body: []byte(`{"email":"user@example.com","plan":"free"}`),
			setupMocks: func(d *MockDialer) {
				session := new(MockSession)
				d.On("Sender").Return("noreply@example.com")
				d.On("Dial", mock.Anything).Return(session, nil).Once()
				session.On("Mail", "noreply@example.com").Return(nil).Once()
				session.On("Rcpt", "user@example.com").Return(errors.New("mailbox unavailable")).Once()
				session.On("Close").Return(nil).Once()
			},
			expectedError: true,
			errorMessage:  "mailbox unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialer := new(MockDialer)
			service := New(dialer, newNoopLogger())

			tt.setupMocks(dialer)

			err := service.SendSubscriptionChange(context.Background(), tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}

			dialer.AssertExpectations(t)
		})
	}
}

func TestService_SendSubscriptionChange_Message(t *testing.T) {
	dialer := new(MockDialer)
	session := successfulDelivery(dialer, "user@example.com")

	service := New(dialer, newNoopLogger())
	service.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }

	body := []byte(`{"email":"user@example.com","plan":"yearly","is_premium":true,"expiry_date":"2027-10-17T12:00:00Z"}`)
	require.NoError(t, service.SendSubscriptionChange(context.Background(), body))
	session.AssertExpectations(t)

	raw := session.body.String()
	assert.Contains(t, raw, "To: user@example.com\r\n")
	assert.Contains(t, raw, "Date: Sat, 17 Oct 2026 12:00:00 +0000\r\n")

	dec := new(mime.WordDecoder)
	for _, line := range strings.Split(raw, "\r\n") {
		if v, ok := strings.CutPrefix(line, "Subject: "); ok {
			subject, err := dec.DecodeHeader(v)
			require.NoError(t, err)
			assert.Equal(t, "Премиум-подписка активирована", subject)
		}
	}
}

func TestCompose(t *testing.T) {
	expiry := time.Date(2026, 11, 16, 12, 0, 0, 0, time.UTC)

	subject, text := Compose(models.SubscriptionChange{
		Email:      "user@example.com",
		Plan:       models.PlanYearly,
		IsPremium:  true,
		ExpiryDate: expiry,
	})
	assert.Equal(t, "Премиум-подписка активирована", subject)
	assert.Contains(t, text, "yearly")
	assert.Contains(t, text, "2026-11-16")

	subject, text = Compose(models.SubscriptionChange{Email: "user@example.com", Plan: models.PlanFree})
	assert.Equal(t, "Подписка завершена", subject)
	assert.Contains(t, text, "бесплатном режиме")
}
