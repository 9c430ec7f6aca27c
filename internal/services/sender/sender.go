// Package sender отправляет владельцам аккаунтов письма об изменении подписки.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/smtp"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/timefmt"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
)

// sendTimeout ограничивает отправку одного письма.
const sendTimeout = 30 * time.Second

// Service отправляет уведомления через SMTP.
type Service struct {
	dialer smtp.Dialer
	log    *slog.Logger
	now    func() time.Time
}

// New создаёт Service.
func New(dialer smtp.Dialer, log *slog.Logger) *Service {
	return &Service{
		dialer: dialer,
		log:    log,
		now:    time.Now,
	}
}

// SendSubscriptionChange обрабатывает сообщение из очереди subscriptions.changed.
// Ошибка означает, что сообщение стоит доставить повторно.
func (s *Service) SendSubscriptionChange(ctx context.Context, body []byte) error {
	const op = "services.sender.SendSubscriptionChange"
	log := s.log.With(slog.String("op", op))

	var change models.SubscriptionChange
	if err := json.Unmarshal(body, &change); err != nil {
		log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	if change.Email == "" {
		// такое сообщение не доставить никогда, повторять бессмысленно
		log.Warn("message without email dropped")
		return nil
	}
	log = log.With(slog.String("email", change.Email), slog.String("plan", change.Plan.String()))

	subject, text := Compose(change)
	msg := smtp.Message{
		From:    s.dialer.Sender(),
		To:      []string{change.Email},
		Subject: subject,
		Body:    text,
		Date:    s.now(),
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	session, err := s.dialer.Dial(ctx)
	if err != nil {
		log.Error("failed to connect to SMTP server", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer session.Close()

	if err := smtp.Deliver(session, msg); err != nil {
		log.Error("failed to deliver email", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email sent")
	return nil
}

// Compose формирует тему и текст письма для изменения подписки.
func Compose(change models.SubscriptionChange) (subject, text string) {
	if change.IsPremium {
		subject = "Премиум-подписка активирована"
		text = fmt.Sprintf("Здравствуйте!\n\nПремиум-подписка (%s) для %s активна до %s.\n\nСпасибо, что пользуетесь нашим антивирусом.",
			change.Plan, change.Email, timefmt.Format(change.ExpiryDate))
		return subject, text
	}
	subject = "Подписка завершена"
	text = fmt.Sprintf("Здравствуйте!\n\nПодписка для %s завершена, антивирус работает в бесплатном режиме.\n\nПродлить подписку можно в любой момент.",
		change.Email)
	return subject, text
}
