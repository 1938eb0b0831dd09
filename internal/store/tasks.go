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

// TaskStore mutates Task rows through the state machine in spec §4.3.
type TaskStore struct {
	pool *pgxpool.Pool
}

func NewTaskStore(pool *pgxpool.Pool) *TaskStore {
	return &TaskStore{pool: pool}
}

// ClaimedTask is a row returned from a Scheduler claim.
type ClaimedTask struct {
	TaskID string
	UserID string
}

// CreateClarifying creates a Task with status=needs_clarification and
// due_at=NULL. source_inbound_id is the idempotence anchor: a second call
// for the same inbound returns ErrTaskExists.
func (s *TaskStore) CreateClarifying(ctx context.Context, userID, sourceInboundID, contactHint, context_ string) (Task, error) {
	return s.create(ctx, Task{
		TaskID:          id.NewULID(),
		UserID:          userID,
		SourceInboundID: sourceInboundID,
		DueAt:           nil,
		ActionType:      ActionRemind,
		ContactHint:     contactHint,
		Context:         context_,
		Status:          TaskNeedsClarification,
	})
}

// CreatePending creates a Task with status=pending and the given due_at.
func (s *TaskStore) CreatePending(ctx context.Context, userID, sourceInboundID string, dueAt time.Time, actionType, contactHint, taskContext string) (Task, error) {
	return s.create(ctx, Task{
		TaskID:          id.NewULID(),
		UserID:          userID,
		SourceInboundID: sourceInboundID,
		DueAt:           &dueAt,
		ActionType:      actionType,
		ContactHint:     contactHint,
		Context:         taskContext,
		Status:          TaskPending,
	})
}

func (s *TaskStore) create(ctx context.Context, t Task) (Task, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO tasks (task_id, user_id, source_inbound_id, due_at, action_type, contact_hint, context, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING attempt_count, last_attempt_at, updated_at`,
		t.TaskID, t.UserID, t.SourceInboundID, t.DueAt, t.ActionType, t.ContactHint, t.Context, t.Status)

	if err := row.Scan(&t.AttemptCount, &t.LastAttemptAt, &t.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Task{}, ErrTaskExists
		}
		return Task{}, err
	}
	return t, nil
}

// ByInbound returns the task created for a given inbound message, if any.
func (s *TaskStore) ByInbound(ctx context.Context, sourceInboundID string) (Task, error) {
	return s.scanOne(ctx, `
		SELECT task_id, user_id, source_inbound_id, due_at, action_type, contact_hint, context, status, attempt_count, last_attempt_at, updated_at
		FROM tasks WHERE source_inbound_id = $1`, sourceInboundID)
}

// Get loads a task by id.
func (s *TaskStore) Get(ctx context.Context, taskID string) (Task, error) {
	return s.scanOne(ctx, `
		SELECT task_id, user_id, source_inbound_id, due_at, action_type, contact_hint, context, status, attempt_count, last_attempt_at, updated_at
		FROM tasks WHERE task_id = $1`, taskID)
}

func (s *TaskStore) scanOne(ctx context.Context, query string, arg any) (Task, error) {
	row := s.pool.QueryRow(ctx, query, arg)
	var t Task
	err := row.Scan(&t.TaskID, &t.UserID, &t.SourceInboundID, &t.DueAt, &t.ActionType, &t.ContactHint, &t.Context, &t.Status, &t.AttemptCount, &t.LastAttemptAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return t, err
}

// ClaimDue atomically claims up to limit pending tasks whose due_at has
// passed, in due_at order, transitioning them to status=due. Concurrent
// scheduler replicas never claim the same row because the inner SELECT
// locks with FOR UPDATE SKIP LOCKED inside the same statement as the
// UPDATE.
func (s *TaskStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]ClaimedTask, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE tasks
		SET status = 'due', updated_at = $1
		WHERE task_id IN (
			SELECT task_id FROM tasks
			WHERE status = 'pending' AND due_at <= $1
			ORDER BY due_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING task_id, user_id`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claimed []ClaimedTask
	for rows.Next() {
		var c ClaimedTask
		if err := rows.Scan(&c.TaskID, &c.UserID); err != nil {
			return nil, err
		}
		claimed = append(claimed, c)
	}
	return claimed, rows.Err()
}

// MarkExecuting transitions a task from due to executing, bumping
// attempt_count and last_attempt_at. Returns ErrNotFound if the task is
// not currently due (tolerates queue replay per §4.5 step 1).
func (s *TaskStore) MarkExecuting(ctx context.Context, taskID string, now time.Time) (Task, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE tasks
		SET status = 'executing', last_attempt_at = $2, attempt_count = attempt_count + 1, updated_at = $2
		WHERE task_id = $1 AND status = 'due'
		RETURNING task_id, user_id, source_inbound_id, due_at, action_type, contact_hint, context, status, attempt_count, last_attempt_at, updated_at`,
		taskID, now)

	var t Task
	err := row.Scan(&t.TaskID, &t.UserID, &t.SourceInboundID, &t.DueAt, &t.ActionType, &t.ContactHint, &t.Context, &t.Status, &t.AttemptCount, &t.LastAttemptAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return t, err
}

// MarkSending transitions a task from executing to sending.
func (s *TaskStore) MarkSending(ctx context.Context, taskID string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks SET status = 'sending', updated_at = $2 WHERE task_id = $1 AND status = 'executing'`, taskID, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkDone transitions a task from sending to done, on first successful send.
func (s *TaskStore) MarkDone(ctx context.Context, taskID string, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE tasks SET status = 'done', updated_at = $2 WHERE task_id = $1 AND status = 'sending'`, taskID, now)
	return err
}

// MarkFailed transitions a task from sending to the terminal failed state.
func (s *TaskStore) MarkFailed(ctx context.Context, taskID string, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE tasks SET status = 'failed', updated_at = $2 WHERE task_id = $1 AND status = 'sending'`, taskID, now)
	return err
}

// RetryFailed resets a failed task back to due, per admin retry (§6):
// attempt_count is reset to zero.
func (s *TaskStore) RetryFailed(ctx context.Context, taskID string, now time.Time) (Task, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE tasks
		SET status = 'due', attempt_count = 0, updated_at = $2
		WHERE task_id = $1 AND status = 'failed'
		RETURNING task_id, user_id, source_inbound_id, due_at, action_type, contact_hint, context, status, attempt_count, last_attempt_at, updated_at`,
		taskID, now)

	var t Task
	err := row.Scan(&t.TaskID, &t.UserID, &t.SourceInboundID, &t.DueAt, &t.ActionType, &t.ContactHint, &t.Context, &t.Status, &t.AttemptCount, &t.LastAttemptAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return t, err
}

// ReapStuck returns tasks stuck in executing/sending beyond the staleness
// threshold back to due, for the crash-recovery sweep described in §4.6/§9.
func (s *TaskStore) ReapStuck(ctx context.Context, staleBefore, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks
		SET status = 'due', updated_at = $2
		WHERE status IN ('executing', 'sending') AND updated_at < $1`, staleBefore, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListFailed returns failed tasks for the admin surface, most recent first.
func (s *TaskStore) ListFailed(ctx context.Context, limit int) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT task_id, user_id, source_inbound_id, due_at, action_type, contact_hint, context, status, attempt_count, last_attempt_at, updated_at
		FROM tasks WHERE status = 'failed' ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.TaskID, &t.UserID, &t.SourceInboundID, &t.DueAt, &t.ActionType, &t.ContactHint, &t.Context, &t.Status, &t.AttemptCount, &t.LastAttemptAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
