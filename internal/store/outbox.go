package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/followup-pipeline/pkg/id"
)

// OutboxStore mutates OutboxMessage rows through the state machine in
// spec §4.6.
type OutboxStore struct {
	pool *pgxpool.Pool
}

func NewOutboxStore(pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{pool: pool}
}

// Create inserts a new queued outbox row. taskID is nullable for
// out-of-band messages; the pipeline's own callers (including clarification
// messages) always pass the task's id.
func (s *OutboxStore) Create(ctx context.Context, taskID *string, userID, channel string, payload OutboxPayload, now time.Time) (OutboxMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return OutboxMessage{}, err
	}

	m := OutboxMessage{
		OutboxID:    id.NewULID(),
		TaskID:      taskID,
		UserID:      userID,
		Channel:     channel,
		Payload:     payload,
		Status:      OutboxQueued,
		NextRetryAt: now,
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO outbox_messages (outbox_id, task_id, user_id, channel, payload, status, attempts, next_retry_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $7)
		RETURNING updated_at`,
		m.OutboxID, m.TaskID, m.UserID, m.Channel, raw, m.Status, m.NextRetryAt)

	if err := row.Scan(&m.UpdatedAt); err != nil {
		return OutboxMessage{}, err
	}
	return m, nil
}

// Get loads an outbox row by id.
func (s *OutboxStore) Get(ctx context.Context, outboxID string) (OutboxMessage, error) {
	return s.scanOne(ctx, `
		SELECT outbox_id, task_id, user_id, channel, payload, status, attempts, next_retry_at, updated_at
		FROM outbox_messages WHERE outbox_id = $1`, outboxID)
}

func (s *OutboxStore) scanOne(ctx context.Context, query string, arg any) (OutboxMessage, error) {
	row := s.pool.QueryRow(ctx, query, arg)
	var m OutboxMessage
	var raw []byte
	err := row.Scan(&m.OutboxID, &m.TaskID, &m.UserID, &m.Channel, &raw, &m.Status, &m.Attempts, &m.NextRetryAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return OutboxMessage{}, ErrNotFound
	}
	if err != nil {
		return OutboxMessage{}, err
	}
	if err := json.Unmarshal(raw, &m.Payload); err != nil {
		return OutboxMessage{}, err
	}
	return m, nil
}

// ClaimQueued atomically claims up to limit queued rows whose next_retry_at
// has passed, in next_retry_at order, transitioning them to sending. Uses
// the same skip-locked discipline as TaskStore.ClaimDue.
func (s *OutboxStore) ClaimQueued(ctx context.Context, now time.Time, limit int) ([]OutboxMessage, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE outbox_messages
		SET status = 'sending', updated_at = $1
		WHERE outbox_id IN (
			SELECT outbox_id FROM outbox_messages
			WHERE status = 'queued' AND next_retry_at <= $1
			ORDER BY next_retry_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING outbox_id, task_id, user_id, channel, payload, status, attempts, next_retry_at, updated_at`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claimed []OutboxMessage
	for rows.Next() {
		var m OutboxMessage
		var raw []byte
		if err := rows.Scan(&m.OutboxID, &m.TaskID, &m.UserID, &m.Channel, &raw, &m.Status, &m.Attempts, &m.NextRetryAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &m.Payload); err != nil {
			return nil, err
		}
		claimed = append(claimed, m)
	}
	return claimed, rows.Err()
}

// MarkSent transitions a sending row to sent.
func (s *OutboxStore) MarkSent(ctx context.Context, outboxID string, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE outbox_messages SET status = 'sent', attempts = attempts + 1, updated_at = $2
		WHERE outbox_id = $1 AND status = 'sending'`, outboxID, now)
	return err
}

// Requeue returns a failed send attempt to queued with the next backoff
// deadline, recording the bumped attempt count.
func (s *OutboxStore) Requeue(ctx context.Context, outboxID string, newAttempts int, nextRetryAt, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE outbox_messages SET status = 'queued', attempts = $2, next_retry_at = $3, updated_at = $4
		WHERE outbox_id = $1 AND status = 'sending'`, outboxID, newAttempts, nextRetryAt, now)
	return err
}

// MarkFailed transitions a sending row to the terminal failed state.
func (s *OutboxStore) MarkFailed(ctx context.Context, outboxID string, newAttempts int, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE outbox_messages SET status = 'failed', attempts = $2, updated_at = $3
		WHERE outbox_id = $1 AND status = 'sending'`, outboxID, newAttempts, now)
	return err
}

// RetryFailed resets a failed outbox row back to queued, per admin retry (§6).
func (s *OutboxStore) RetryFailed(ctx context.Context, outboxID string, now time.Time) (OutboxMessage, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE outbox_messages
		SET status = 'queued', attempts = 0, next_retry_at = $2, updated_at = $2
		WHERE outbox_id = $1 AND status = 'failed'
		RETURNING outbox_id, task_id, user_id, channel, payload, status, attempts, next_retry_at, updated_at`,
		outboxID, now)

	var m OutboxMessage
	var raw []byte
	err := row.Scan(&m.OutboxID, &m.TaskID, &m.UserID, &m.Channel, &raw, &m.Status, &m.Attempts, &m.NextRetryAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return OutboxMessage{}, ErrNotFound
	}
	if err != nil {
		return OutboxMessage{}, err
	}
	if err := json.Unmarshal(raw, &m.Payload); err != nil {
		return OutboxMessage{}, err
	}
	return m, nil
}

// ReapStuck returns outbox rows stuck in sending beyond the staleness
// threshold back to queued, for immediate retry on the next poll.
func (s *OutboxStore) ReapStuck(ctx context.Context, staleBefore, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE outbox_messages
		SET status = 'queued', next_retry_at = $2, updated_at = $2
		WHERE status = 'sending' AND updated_at < $1`, staleBefore, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListFailed returns failed outbox rows for the admin surface, most recent first.
func (s *OutboxStore) ListFailed(ctx context.Context, limit int) ([]OutboxMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT outbox_id, task_id, user_id, channel, payload, status, attempts, next_retry_at, updated_at
		FROM outbox_messages WHERE status = 'failed' ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutboxMessage
	for rows.Next() {
		var m OutboxMessage
		var raw []byte
		if err := rows.Scan(&m.OutboxID, &m.TaskID, &m.UserID, &m.Channel, &raw, &m.Status, &m.Attempts, &m.NextRetryAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &m.Payload); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Backoff computes the retry delay after the nth failure:
// min(30_000 * 2^n, 600_000) milliseconds.
func Backoff(n int) time.Duration {
	ms := int64(30_000)
	for range n {
		ms *= 2
		if ms >= 600_000 {
			return 600_000 * time.Millisecond
		}
	}
	return time.Duration(ms) * time.Millisecond
}
