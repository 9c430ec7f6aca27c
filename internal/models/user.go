package models

import "time"

// User запись пользователя-подписчика.
//
// Email является первичным ключом и сравнивается с учётом регистра.
// SubscriptionDate и ExpiryDate равны nil, если подписка ни разу не активировалась.
type User struct {
	Email            string     `json:"email"`
	SubscriptionType Plan       `json:"subscription_type"`
	SubscriptionDate *time.Time `json:"subscription_date,omitempty"`
	ExpiryDate       *time.Time `json:"expiry_date,omitempty"`
	IsPremium        bool       `json:"is_premium"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// StoredUser строка таблицы users в том виде, в котором она лежит в хранилище.
// Даты хранятся текстом: разные производители данных писали их в разных форматах,
// поэтому разбор выполняется при чтении (см. services/subscription.Resolver).
type StoredUser struct {
	Email            string
	SubscriptionType string
	SubscriptionDate string
	ExpiryDate       string
	IsPremium        bool
	UpdatedAt        string
}

// SubscriptionChange событие об изменении подписки, публикуемое после успешной записи.
type SubscriptionChange struct {
	Email      string    `json:"email"`
	Plan       Plan      `json:"plan"`
	IsPremium  bool      `json:"is_premium"`
	ExpiryDate time.Time `json:"expiry_date"`
	ChangedAt  time.Time `json:"changed_at"`
}
