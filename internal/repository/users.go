package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/televizor/billing/internal/domain"
)

// Users resolves and registers billing identities.
type Users struct {
	pool *pgxpool.Pool
}

func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

func (u *Users) Lookup(ctx context.Context, telegramID int64) (*domain.User, error) {
	var user domain.User
	err := u.pool.QueryRow(ctx,
		`SELECT telegram_id, first_name, username, created_at FROM users WHERE telegram_id = $1`,
		telegramID).Scan(&user.TelegramID, &user.FirstName, &user.Username, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// Upsert links a Telegram identity so later webhook events can resolve it.
func (u *Users) Upsert(ctx context.Context, telegramID int64, firstName, username string) (*domain.User, error) {
	var user domain.User
	err := u.pool.QueryRow(ctx,
		`INSERT INTO users (telegram_id, first_name, username)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (telegram_id) DO UPDATE SET
		     first_name = EXCLUDED.first_name,
		     username = EXCLUDED.username
		 RETURNING telegram_id, first_name, username, created_at`,
		telegramID, firstName, username).
		Scan(&user.TelegramID, &user.FirstName, &user.Username, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &user, nil
}
