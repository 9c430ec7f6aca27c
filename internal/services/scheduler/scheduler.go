// Package scheduler периодически ищет премиум-подписки, срок которых истёк,
// и публикует для них событие о переходе в бесплатный режим.
//
// Хранилище при этом не меняется: план вычисляется при чтении (см. subscription.Resolver),
// событие нужно только для уведомления владельца.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/timefmt"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
)

// DefaultInterval период проверки по умолчанию.
const DefaultInterval = time.Hour

// Repository источник премиум-подписок.
type Repository interface {
	ListPremiumUsers(ctx context.Context) ([]models.StoredUser, error)
}

// Notifier получатель событий об окончании подписки.
type Notifier interface {
	Publish(ctx context.Context, change models.SubscriptionChange) error
}

// Service поиск истёкших подписок.
type Service struct {
	repo     Repository
	notifier Notifier
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// New создаёт Service.
func New(repo Repository, notifier Notifier, interval time.Duration, log *slog.Logger) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Run проверяет подписки каждые interval до отмены ctx. Каждый проход
// покрывает промежуток с конца предыдущего успешного, так что одна подписка
// уведомляется один раз.
func (s *Service) Run(ctx context.Context) {
	from := s.now().Add(-s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		to := s.now()
		if _, err := s.NotifyExpired(ctx, from, to); err != nil {
			s.log.Error("expiry check failed", sl.Err(err))
		} else {
			from = to
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// NotifyExpired публикует событие для каждой подписки с окончанием в (from, to].
// Ошибка публикации одного события не прерывает проход.
func (s *Service) NotifyExpired(ctx context.Context, from, to time.Time) (int, error) {
	const op = "services.scheduler.NotifyExpired"
	log := s.log.With(slog.String("op", op))

	users, err := s.repo.ListPremiumUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	sent := 0
	for _, u := range users {
		expiry, err := timefmt.Parse(u.ExpiryDate)
		if err != nil {
			log.Warn("unparseable expiry date", slog.String("email", u.Email), sl.Err(err))
			continue
		}
		if !expiry.After(from) || expiry.After(to) {
			continue
		}

		change := models.SubscriptionChange{
			Email:      u.Email,
			Plan:       models.PlanFree,
			IsPremium:  false,
			ExpiryDate: expiry,
			ChangedAt:  to.UTC(),
		}
		if err := s.notifier.Publish(ctx, change); err != nil {
			log.Error("failed to publish expiry", slog.String("email", u.Email), sl.Err(err))
			continue
		}
		sent++
	}

	log.Info("expiry check finished",
		slog.Int("premium_users", len(users)),
		slog.Int("notified", sent),
	)
	return sent, nil
}
