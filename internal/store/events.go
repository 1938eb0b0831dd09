package store

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/followup-pipeline/pkg/id"
)

// EventStore appends TaskEvent audit rows. Per §4.3 and §7 item 7, writes
// here are observability only: callers must never let a failure here
// abort a state-machine-critical operation.
type EventStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewEventStore(pool *pgxpool.Pool, log *slog.Logger) *EventStore {
	return &EventStore{pool: pool, log: log}
}

// Record appends one audit entry. Errors are logged and swallowed.
func (s *EventStore) Record(ctx context.Context, taskID, userID, eventType string, payload map[string]any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.WarnContext(ctx, "task event payload marshal failed", slog.String("task_id", taskID), slog.String("event_type", eventType), slog.Any("error", err))
		return
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO task_events (event_id, task_id, user_id, event_type, payload)
		VALUES ($1, $2, $3, $4, $5)`, id.NewULID(), taskID, userID, eventType, raw)
	if err != nil {
		s.log.WarnContext(ctx, "task event write failed", slog.String("task_id", taskID), slog.String("event_type", eventType), slog.Any("error", err))
	}
}

// ListByTask returns all events for a task, oldest first.
func (s *EventStore) ListByTask(ctx context.Context, taskID string) ([]TaskEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, task_id, user_id, event_type, payload, created_at
		FROM task_events WHERE task_id = $1 ORDER BY created_at ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []TaskEvent
	for rows.Next() {
		var e TaskEvent
		var raw []byte
		if err := rows.Scan(&e.EventID, &e.TaskID, &e.UserID, &e.EventType, &raw, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
