package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/followup-pipeline/pkg/id"
)

// InboundStore persists webhook events.
type InboundStore struct {
	pool *pgxpool.Pool
}

func NewInboundStore(pool *pgxpool.Pool) *InboundStore {
	return &InboundStore{pool: pool}
}

// Create inserts a new InboundMessage with status=received. The unique
// constraint on idempotency_key is the authoritative dedup boundary; a
// conflict returns ErrDuplicateInbound.
func (s *InboundStore) Create(ctx context.Context, userID, channel, providerMessageID, idempotencyKey, rawTextRedacted string) (InboundMessage, error) {
	msg := InboundMessage{
		InboundID:         id.NewULID(),
		UserID:            userID,
		Channel:           channel,
		ProviderMessageID: providerMessageID,
		IdempotencyKey:    idempotencyKey,
		RawTextRedacted:   rawTextRedacted,
		Status:            InboundReceived,
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO inbound_messages
			(inbound_id, user_id, channel, provider_message_id, idempotency_key, raw_text_redacted, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING received_at`,
		msg.InboundID, msg.UserID, msg.Channel, msg.ProviderMessageID, msg.IdempotencyKey, msg.RawTextRedacted, msg.Status)

	if err := row.Scan(&msg.ReceivedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return InboundMessage{}, ErrDuplicateInbound
		}
		return InboundMessage{}, err
	}
	return msg, nil
}

// FindByIdempotencyKey looks up an existing inbound row by its dedup key.
func (s *InboundStore) FindByIdempotencyKey(ctx context.Context, key string) (InboundMessage, error) {
	return s.scanOne(ctx, `
		SELECT inbound_id, user_id, channel, provider_message_id, idempotency_key, raw_text_redacted, status, received_at
		FROM inbound_messages WHERE idempotency_key = $1`, key)
}

// Get loads an inbound row by id.
func (s *InboundStore) Get(ctx context.Context, inboundID string) (InboundMessage, error) {
	return s.scanOne(ctx, `
		SELECT inbound_id, user_id, channel, provider_message_id, idempotency_key, raw_text_redacted, status, received_at
		FROM inbound_messages WHERE inbound_id = $1`, inboundID)
}

func (s *InboundStore) scanOne(ctx context.Context, query string, arg any) (InboundMessage, error) {
	row := s.pool.QueryRow(ctx, query, arg)
	var m InboundMessage
	err := row.Scan(&m.InboundID, &m.UserID, &m.Channel, &m.ProviderMessageID, &m.IdempotencyKey, &m.RawTextRedacted, &m.Status, &m.ReceivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return InboundMessage{}, ErrNotFound
	}
	return m, err
}

// MarkProcessed transitions an inbound row to status=processed.
func (s *InboundStore) MarkProcessed(ctx context.Context, inboundID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE inbound_messages SET status = $2 WHERE inbound_id = $1`, inboundID, InboundProcessed)
	return err
}

// RedactOlderThan replaces raw_text_redacted with a fixed marker for rows
// received before the given cutoff, returning the number of rows affected.
func (s *InboundStore) RedactOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE inbound_messages
		SET raw_text_redacted = '[REDACTED_PER_RETENTION_POLICY]'
		WHERE received_at < $1 AND raw_text_redacted <> '[REDACTED_PER_RETENTION_POLICY]'`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
