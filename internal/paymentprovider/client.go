// Package paymentprovider клиент API платёжного провайдера: чтение покупателей и подписок.
package paymentprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/subscription"
	"golang.org/x/time/rate"
)

// DefaultAPIURL адрес API провайдера. Суффикс /v1 в настройке допускается, SDK его отбрасывает.
const DefaultAPIURL = stripe.APIURL

// requestTimeout ограничивает один запрос к API.
const requestTimeout = 10 * time.Second

var (
	// ErrNoPrice у подписки нет позиций с ценой.
	ErrNoPrice = errors.New("subscription has no price")
	// ErrCustomerDeleted покупатель удалён у провайдера.
	ErrCustomerDeleted = errors.New("customer is deleted")
)

// Client клиент API. Исходящие запросы ограничены token bucket, чтобы
// шторм повторных доставок вебхуков не упёрся в лимиты провайдера.
type Client struct {
	customers     customer.Client
	subscriptions subscription.Client
	limiter       *rate.Limiter
}

// NewClient создаёт клиент с секретным ключом. rps <= 0 отключает ограничение.
func NewClient(secretKey, apiURL string, rps float64) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}

	// повторы делает провайдер, переотправляя вебхук, поэтому SDK не повторяет запросы сам
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(apiURL),
		HTTPClient:        &http.Client{Timeout: requestTimeout},
		MaxNetworkRetries: stripe.Int64(0),
		EnableTelemetry:   stripe.Bool(false),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})

	return &Client{
		customers:     customer.Client{B: backend, Key: secretKey},
		subscriptions: subscription.Client{B: backend, Key: secretKey},
		limiter:       rate.NewLimiter(limit, burst),
	}
}

// GetCustomer возвращает покупателя по ID.
func (c *Client) GetCustomer(ctx context.Context, id string) (*stripe.Customer, error) {
	const op = "paymentprovider.GetCustomer"
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	params := &stripe.CustomerParams{}
	params.Context = ctx
	cust, err := c.customers.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cust, nil
}

// GetSubscription возвращает подписку по ID.
func (c *Client) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	const op = "paymentprovider.GetSubscription"
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := c.subscriptions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// CustomerEmail адрес почты покупателя.
func (c *Client) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	const op = "paymentprovider.CustomerEmail"
	cust, err := c.GetCustomer(ctx, customerID)
	if err != nil {
		return "", err
	}
	if cust.Deleted {
		return "", fmt.Errorf("%s: %w: %s", op, ErrCustomerDeleted, customerID)
	}
	return cust.Email, nil
}

// SubscriptionPriceID идентификатор цены первой позиции подписки.
func (c *Client) SubscriptionPriceID(ctx context.Context, subscriptionID string) (string, error) {
	const op = "paymentprovider.SubscriptionPriceID"
	sub, err := c.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return "", err
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return "", fmt.Errorf("%s: %w: %s", op, ErrNoPrice, subscriptionID)
	}
	item := sub.Items.Data[0]
	if item == nil || item.Price == nil || item.Price.ID == "" {
		return "", fmt.Errorf("%s: %w: %s", op, ErrNoPrice, subscriptionID)
	}
	return item.Price.ID, nil
}
