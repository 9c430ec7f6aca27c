package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/antivirus-core/internal/lib/timefmt"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
)

// GetUser возвращает запись пользователя в том виде, в котором она хранится.
// Если записи нет, возвращается storage.ErrNotFound.
func (s *Storage) GetUser(ctx context.Context, email string) (*models.StoredUser, error) {
	const op = "storage.GetUser"
	ctx, cancel := s.readCtx(ctx)
	defer cancel()

	query := `SELECT email, subscription_type, subscription_date, expiry_date, is_premium, updated_at
			  FROM users
			  WHERE email = ?`

	var u models.StoredUser
	var subType, subDate, expiryDate, updated sql.NullString
	var isPremium sql.NullBool
	err := s.DB.QueryRowContext(ctx, query, email).Scan(
		&u.Email, &subType, &subDate, &expiryDate, &isPremium, &updated)
	if err != nil {
		return nil, readErr(op, err)
	}
	u.SubscriptionType = subType.String
	u.SubscriptionDate = subDate.String
	u.ExpiryDate = expiryDate.String
	u.IsPremium = isPremium.Valid && isPremium.Bool
	u.UpdatedAt = updated.String
	return &u, nil
}

// UpsertUser создаёт или полностью перезаписывает поля подписки пользователя
// одним оператором внутри одной транзакции, поэтому читатель никогда не увидит
// план от одной записи и дату окончания от другой.
func (s *Storage) UpsertUser(ctx context.Context, user models.User) error {
	const op = "storage.UpsertUser"

	query := `INSERT INTO users (email, subscription_type, subscription_date, expiry_date, is_premium, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?)
			  ON CONFLICT (email) DO UPDATE SET
			      subscription_type = excluded.subscription_type,
			      subscription_date = excluded.subscription_date,
			      expiry_date = excluded.expiry_date,
			      is_premium = excluded.is_premium,
			      updated_at = excluded.updated_at`

	return s.withTx(ctx, op, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			user.Email,
			string(user.SubscriptionType),
			nullTime(user.SubscriptionDate),
			nullTime(user.ExpiryDate),
			user.IsPremium,
			timefmt.Format(user.UpdatedAt),
		)
		return err
	})
}

// ListPremiumUsers возвращает пользователей с флагом премиума и заданной датой окончания.
// Даты не сравниваются в SQL: они могут храниться в разных форматах.
func (s *Storage) ListPremiumUsers(ctx context.Context) ([]models.StoredUser, error) {
	const op = "storage.ListPremiumUsers"
	ctx, cancel := s.readCtx(ctx)
	defer cancel()

	query := `SELECT email, subscription_type, subscription_date, expiry_date, is_premium, updated_at
			  FROM users
			  WHERE is_premium = 1 AND expiry_date IS NOT NULL
			  ORDER BY email`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, readErr(op, err)
	}
	defer rows.Close()

	users := make([]models.StoredUser, 0)
	for rows.Next() {
		var u models.StoredUser
		var subType, subDate, expiryDate, updated sql.NullString
		if err := rows.Scan(&u.Email, &subType, &subDate, &expiryDate, &u.IsPremium, &updated); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		u.SubscriptionType = subType.String
		u.SubscriptionDate = subDate.String
		u.ExpiryDate = expiryDate.String
		u.UpdatedAt = updated.String
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(op, err)
	}
	return users, nil
}

// CountUsers возвращает количество пользователей.
func (s *Storage) CountUsers(ctx context.Context) (int64, error) {
	return s.count(ctx, "storage.CountUsers", `SELECT COUNT(*) FROM users`)
}
