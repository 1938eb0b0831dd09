package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserStore resolves users and their preferences.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// FindByAddress resolves a user by the identifying column for the given
// channel: primary_email for email, chat_number for chat.
func (s *UserStore) FindByAddress(ctx context.Context, channel, address string) (User, error) {
	column := "primary_email"
	if channel == ChannelChat {
		column = "chat_number"
	}

	row := s.pool.QueryRow(ctx, `
		SELECT user_id, primary_email, chat_number, display_name, status
		FROM users WHERE `+column+` = $1`, address)

	var u User
	if err := row.Scan(&u.UserID, &u.PrimaryEmail, &u.ChatNumber, &u.DisplayName, &u.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// Get loads a user by id.
func (s *UserStore) Get(ctx context.Context, userID string) (User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, primary_email, chat_number, display_name, status
		FROM users WHERE user_id = $1`, userID)

	var u User
	if err := row.Scan(&u.UserID, &u.PrimaryEmail, &u.ChatNumber, &u.DisplayName, &u.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// Preferences loads a user's preferences.
func (s *UserStore) Preferences(ctx context.Context, userID string) (Preferences, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, timezone, tone, default_action, fallback_channel
		FROM preferences WHERE user_id = $1`, userID)

	var p Preferences
	if err := row.Scan(&p.UserID, &p.Timezone, &p.Tone, &p.DefaultAction, &p.FallbackChannel); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Preferences{}, ErrNotFound
		}
		return Preferences{}, err
	}
	return p, nil
}
