package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
)

// Типы событий провайдера, которые меняют подписку.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventSubscriptionCancelled = "customer.subscription.deleted"
	EventSubscriptionUpdated   = "customer.subscription.updated"
	EventPaymentFailed         = "invoice.payment_failed"
)

// ErrHandler ошибка обработки события. Провайдер повторит доставку.
var ErrHandler = errors.New("webhook handler failed")

// Provider обращения к API платёжного провайдера.
type Provider interface {
	CustomerEmail(ctx context.Context, customerID string) (string, error)
	SubscriptionPriceID(ctx context.Context, subscriptionID string) (string, error)
}

// Mutator применяет изменение плана.
type Mutator interface {
	Apply(ctx context.Context, email string, plan models.Plan, durationDays int) error
}

type checkoutSession struct {
	Customer        string `json:"customer"`
	CustomerEmail   string `json:"customer_email"`
	Subscription    string `json:"subscription"`
	CustomerDetails *struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

type subscriptionObject struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func (s *subscriptionObject) priceID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

// customerRef общая часть подписки и счёта: ссылка на покупателя.
type customerRef struct {
	Customer string `json:"customer"`
}

// Dispatcher направляет событие одному обработчику по его типу.
type Dispatcher struct {
	provider Provider
	mutator  Mutator
	prices   *PriceMapper
	log      *slog.Logger
}

// NewDispatcher создаёт Dispatcher.
func NewDispatcher(provider Provider, mutator Mutator, prices *PriceMapper, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		mutator:  mutator,
		prices:   prices,
		log:      log,
	}
}

// Dispatch обрабатывает событие. Неизвестные типы подтверждаются без изменений.
// Любая ошибка обработчика оборачивается в ErrHandler; повтор выполняет провайдер.
func (d *Dispatcher) Dispatch(ctx context.Context, event *Event) error {
	const op = "webhook.Dispatch"
	log := d.log.With(
		slog.String("op", op),
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
	)

	var err error
	switch event.Type {
	case EventCheckoutCompleted:
		err = d.checkoutCompleted(ctx, log, event.Data.Object)
	case EventSubscriptionCancelled:
		err = d.downgrade(ctx, log, event.Data.Object, "subscription cancelled")
	case EventSubscriptionUpdated:
		err = d.subscriptionUpdated(ctx, log, event.Data.Object)
	case EventPaymentFailed:
		err = d.downgrade(ctx, log, event.Data.Object, "payment failed, subscription revoked")
	default:
		log.Info("unhandled event type")
		return nil
	}
	if err != nil {
		log.Error("failed to handle event", sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, ErrHandler, err)
	}
	return nil
}

func (d *Dispatcher) checkoutCompleted(ctx context.Context, log *slog.Logger, raw json.RawMessage) error {
	var session checkoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	email := session.CustomerEmail
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		email = session.CustomerDetails.Email
	}
	if email == "" {
		var err error
		if email, err = d.customerEmail(ctx, session.Customer); err != nil {
			return err
		}
	}

	plan := models.PlanLifetime
	if session.Subscription != "" {
		priceID, err := d.provider.SubscriptionPriceID(ctx, session.Subscription)
		if err != nil {
			return fmt.Errorf("retrieve subscription: %w", err)
		}
		if plan, err = d.prices.Map(priceID); err != nil {
			return err
		}
	}

	if err := d.mutator.Apply(ctx, email, plan, plan.DurationDays()); err != nil {
		return err
	}
	log.Info("subscription activated", slog.String("email", email), slog.String("plan", plan.String()))
	return nil
}

func (d *Dispatcher) subscriptionUpdated(ctx context.Context, log *slog.Logger, raw json.RawMessage) error {
	var sub subscriptionObject
	if err := json.Unmarshal(raw, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}

	if sub.Status != "active" && sub.Status != "trialing" {
		log.Info("subscription status does not grant access, ignored", slog.String("status", sub.Status))
		return nil
	}

	email, err := d.customerEmail(ctx, sub.Customer)
	if err != nil {
		return err
	}

	priceID := sub.priceID()
	if priceID == "" && sub.ID != "" {
		if priceID, err = d.provider.SubscriptionPriceID(ctx, sub.ID); err != nil {
			return fmt.Errorf("retrieve subscription: %w", err)
		}
	}
	plan, err := d.prices.Map(priceID)
	if err != nil {
		return err
	}

	if err = d.mutator.Apply(ctx, email, plan, plan.DurationDays()); err != nil {
		return err
	}
	log.Info("subscription updated", slog.String("email", email), slog.String("plan", plan.String()))
	return nil
}

// downgrade переводит владельца объекта на бесплатный план без срока.
func (d *Dispatcher) downgrade(ctx context.Context, log *slog.Logger, raw json.RawMessage, msg string) error {
	var obj customerRef
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("decode object: %w", err)
	}

	email, err := d.customerEmail(ctx, obj.Customer)
	if err != nil {
		return err
	}
	if err = d.mutator.Apply(ctx, email, models.PlanFree, 0); err != nil {
		return err
	}
	log.Info(msg, slog.String("email", email))
	return nil
}

func (d *Dispatcher) customerEmail(ctx context.Context, customerID string) (string, error) {
	if customerID == "" {
		return "", errors.New("event has no customer")
	}
	email, err := d.provider.CustomerEmail(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("retrieve customer: %w", err)
	}
	if email == "" {
		return "", fmt.Errorf("customer %s has no email", customerID)
	}
	return email, nil
}
