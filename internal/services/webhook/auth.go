// Package webhook проверяет подлинность событий платёжного провайдера
// и направляет их обработчикам изменения подписки.
package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	stripewebhook "github.com/stripe/stripe-go/v76/webhook"
)

// DefaultTolerance допустимое расхождение между временем создания события и текущим временем.
const DefaultTolerance = 300 * time.Second

// SignatureHeader заголовок с подписью события.
const SignatureHeader = "Stripe-Signature"

var (
	// ErrAuth общая ошибка аутентификации события, ей соответствуют все ошибки ниже.
	ErrAuth = errors.New("webhook authentication failed")
	// ErrMissingSignature заголовок подписи отсутствует.
	ErrMissingSignature = fmt.Errorf("%w: missing signature", ErrAuth)
	// ErrInvalidSignature подпись не совпала или заголовок не разобран.
	ErrInvalidSignature = fmt.Errorf("%w: invalid signature", ErrAuth)
	// ErrMalformedPayload тело не является событием провайдера.
	ErrMalformedPayload = fmt.Errorf("%w: malformed payload", ErrAuth)
	// ErrStaleEvent событие создано слишком давно или «в будущем».
	ErrStaleEvent = fmt.Errorf("%w: stale event", ErrAuth)
)

// Event событие провайдера после проверки подписи. Поля объекта не проверяются.
type Event struct {
	ID      string
	Type    string
	Created int64
	Data    struct {
		Object json.RawMessage
	}
}

// CreatedAt время создания события.
func (e *Event) CreatedAt() time.Time {
	return time.Unix(e.Created, 0)
}

// Authenticator проверяет подпись и свежесть событий.
type Authenticator struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

// NewAuthenticator создаёт Authenticator с общим секретом вебхука.
func NewAuthenticator(secret string, tolerance time.Duration) *Authenticator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Authenticator{
		secret:    secret,
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Authenticate проверяет событие относительно текущего времени.
func (a *Authenticator) Authenticate(payload []byte, header string) (*Event, error) {
	return a.AuthenticateAt(payload, header, a.now())
}

// AuthenticateAt проверяет подпись заголовка, разбирает событие и проверяет,
// что |now - created| не превышает допуск. Побочных эффектов нет.
//
// Время в заголовке подписи SDK не проверяет: свежесть определяется по created
// относительно now, чтобы часы можно было подменить.
func (a *Authenticator) AuthenticateAt(payload []byte, header string, now time.Time) (*Event, error) {
	const op = "webhook.Authenticate"

	if strings.TrimSpace(header) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingSignature)
	}

	raw, err := stripewebhook.ConstructEventWithOptions(payload, header, a.secret, stripewebhook.ConstructEventOptions{
		IgnoreTolerance:          true,
		IgnoreAPIVersionMismatch: true,
	})
	switch {
	case errors.Is(err, stripewebhook.ErrNotSigned):
		return nil, fmt.Errorf("%s: %w", op, ErrMissingSignature)
	case errors.Is(err, stripewebhook.ErrInvalidHeader), errors.Is(err, stripewebhook.ErrNoValidSignature):
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
	case err != nil:
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedPayload, err)
	}

	event := fromProvider(raw)
	if event.Type == "" || event.Created <= 0 {
		return nil, fmt.Errorf("%s: %w: missing type or created", op, ErrMalformedPayload)
	}

	if age := now.Sub(event.CreatedAt()); age > a.tolerance || age < -a.tolerance {
		return nil, fmt.Errorf("%s: %w: created %s", op, ErrStaleEvent, event.CreatedAt().UTC().Format(time.RFC3339))
	}

	return event, nil
}

func fromProvider(raw stripe.Event) *Event {
	event := &Event{
		ID:      raw.ID,
		Type:    string(raw.Type),
		Created: raw.Created,
	}
	if raw.Data != nil {
		event.Data.Object = raw.Data.Raw
	}
	return event
}

// Sign формирует значение заголовка подписи для payload. Используется в тестах
// и утилитах, отправляющих события на локальный сервер.
func Sign(secret string, payload []byte, at time.Time) string {
	return fmt.Sprintf("t=%d,v1=%x", at.Unix(), stripewebhook.ComputeSignature(at, payload, secret))
}
