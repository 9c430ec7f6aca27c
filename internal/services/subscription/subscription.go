// Package subscription реализует запись и чтение состояния подписки пользователя.
//
// Mutator применяет изменение плана одной атомарной записью, Resolver вычисляет
// действующий план при чтении с учётом даты окончания и никогда не пишет в хранилище.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/timefmt"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
	"github.com/magabrotheeeer/antivirus-core/internal/storage"
)

// Repository методы хранилища, которые нужны сервису подписок.
type Repository interface {
	GetUser(ctx context.Context, email string) (*models.StoredUser, error)
	UpsertUser(ctx context.Context, user models.User) error
}

// Notifier получает уведомление после успешного изменения подписки.
type Notifier interface {
	Publish(ctx context.Context, change models.SubscriptionChange) error
}

// ErrInvalidPlan неизвестный тип плана.
var ErrInvalidPlan = errors.New("invalid subscription type")

// ErrInvalidDuration отрицательная длительность.
var ErrInvalidDuration = errors.New("duration must not be negative")

// Mutator применяет изменения плана пользователя.
type Mutator struct {
	repo     Repository
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

// Option настраивает Mutator.
type Option func(*Mutator)

// WithNotifier подключает публикацию событий об изменении подписки.
func WithNotifier(n Notifier) Option {
	return func(m *Mutator) {
		m.notifier = n
	}
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(m *Mutator) {
		m.now = now
	}
}

// NewMutator создаёт Mutator.
func NewMutator(repo Repository, log *slog.Logger, opts ...Option) *Mutator {
	m := &Mutator{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Apply записывает план пользователю: дата подписки равна текущему времени,
// дата окончания равна now + durationDays. Повторный вызов с теми же аргументами
// перезаписывает значения, а не продлевает срок.
func (m *Mutator) Apply(ctx context.Context, email string, plan models.Plan, durationDays int) error {
	const op = "subscription.Apply"
	log := m.log.With(slog.String("op", op), slog.String("email", email))

	if !plan.Valid() {
		return fmt.Errorf("%s: %w: %q", op, ErrInvalidPlan, plan)
	}
	if durationDays < 0 {
		return fmt.Errorf("%s: %w", op, ErrInvalidDuration)
	}

	now := m.now().UTC()
	expiry := now.AddDate(0, 0, durationDays)
	user := models.User{
		Email:            email,
		SubscriptionType: plan,
		SubscriptionDate: &now,
		ExpiryDate:       &expiry,
		IsPremium:        plan.IsPremium(),
		UpdatedAt:        now,
	}

	if err := m.repo.UpsertUser(ctx, user); err != nil {
		log.Error("failed to apply subscription", slog.String("plan", plan.String()), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("subscription applied",
		slog.String("plan", plan.String()),
		slog.Int("duration_days", durationDays),
		slog.Bool("is_premium", user.IsPremium),
	)

	if m.notifier != nil {
		change := models.SubscriptionChange{
			Email:      email,
			Plan:       plan,
			IsPremium:  user.IsPremium,
			ExpiryDate: expiry,
			ChangedAt:  now,
		}
		if err := m.notifier.Publish(ctx, change); err != nil {
			log.Warn("failed to publish subscription change", sl.Err(err))
		}
	}
	return nil
}

// Status действующее состояние подписки.
type Status struct {
	Plan       models.Plan
	IsPremium  bool
	ExpiryDate *time.Time
}

// Resolver вычисляет действующий план пользователя.
type Resolver struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// NewResolver создаёт Resolver.
func NewResolver(repo Repository, log *slog.Logger) *Resolver {
	return &Resolver{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Resolve возвращает действующий план на текущий момент.
func (r *Resolver) Resolve(ctx context.Context, email string) (Status, error) {
	return r.ResolveAt(ctx, email, r.now())
}

// ResolveAt возвращает действующий план на момент now.
//
// Отсутствие записи, пустая или неразборчивая дата окончания, истёкший срок и
// неизвестный тип плана дают (free, false). Ошибка возвращается только при
// недоступности хранилища; вызывающий код в этом случае тоже считает план бесплатным.
func (r *Resolver) ResolveAt(ctx context.Context, email string, now time.Time) (Status, error) {
	const op = "subscription.Resolve"
	log := r.log.With(slog.String("op", op), slog.String("email", email))

	free := Status{Plan: models.PlanFree}

	stored, err := r.repo.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return free, nil
		}
		log.Error("failed to read user", sl.Err(err))
		return free, fmt.Errorf("%s: %w", op, err)
	}

	expiry, err := timefmt.Parse(stored.ExpiryDate)
	if err != nil {
		if stored.ExpiryDate != "" {
			log.Warn("unparseable expiry date, treating as free", slog.String("expiry_date", stored.ExpiryDate))
		}
		return free, nil
	}
	if !expiry.After(now) {
		return free, nil
	}

	plan, err := models.ParsePlan(stored.SubscriptionType)
	if err != nil {
		log.Warn("unknown stored plan, treating as free", slog.String("subscription_type", stored.SubscriptionType))
		return free, nil
	}
	return Status{Plan: plan, IsPremium: stored.IsPremium, ExpiryDate: &expiry}, nil
}
