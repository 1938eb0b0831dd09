// Package queue wraps pkg/job with the two task kinds the pipeline
// dispatches: ingest_message and execute_task. Insert-only processes
// (ingress, scheduler, admin) use Enqueuer; worker processes (cmd/ingest,
// cmd/executor) use IngestWorker/ExecuteWorker, each registering only the
// task kind and queue it actually processes so River's per-queue worker
// count correctly partitions work across processes.
package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/followup-pipeline/pkg/job"
)

// IngestPayload is the ingest job's argument, per spec.md §4.2.
type IngestPayload struct {
	InboundID string `json:"inbound_id"`
	UserID    string `json:"user_id"`
}

// ExecutePayload is the execute job's argument, per spec.md §4.5.
type ExecutePayload struct {
	TaskID string `json:"task_id"`
}

// IngestHandler processes ingest jobs.
type IngestHandler interface {
	Name() string
	Handle(ctx context.Context, p IngestPayload) error
}

// ExecuteHandler processes execute jobs.
type ExecuteHandler interface {
	Name() string
	Handle(ctx context.Context, p ExecutePayload) error
}

const (
	TaskIngestMessage = "ingest_message"
	TaskExecuteTask   = "execute_task"

	QueueIngest  = "ingest"
	QueueExecute = "execute"

	uniqueWindow = time.Hour
)

// Enqueuer inserts jobs without processing them, for processes that only
// dispatch work (ingress, scheduler, admin).
type Enqueuer struct {
	e *job.Enqueuer
}

// NewEnqueuer builds an insert-only enqueuer.
func NewEnqueuer(pool *pgxpool.Pool, log *slog.Logger) (*Enqueuer, error) {
	e, err := job.NewEnqueuer(pool, job.WithEnqueuerLogger(log))
	if err != nil {
		return nil, err
	}
	return &Enqueuer{e: e}, nil
}

// EnqueueIngest enqueues an ingest job deduplicated on idempotencyKey:
// the second-layer dedup described in §4.1 step 4.
func (e *Enqueuer) EnqueueIngest(ctx context.Context, p IngestPayload, idempotencyKey string) error {
	return e.e.Enqueue(ctx, TaskIngestMessage, p,
		job.InQueue(QueueIngest),
		job.UniqueFor(uniqueWindow),
		job.UniqueKey(idempotencyKey),
	)
}

// EnqueueExecute enqueues an execute job deduplicated on "exec:"+taskID,
// per §4.4 step 2.
func (e *Enqueuer) EnqueueExecute(ctx context.Context, taskID string) error {
	return e.e.Enqueue(ctx, TaskExecuteTask, ExecutePayload{TaskID: taskID},
		job.InQueue(QueueExecute),
		job.UniqueFor(uniqueWindow),
		job.UniqueKey("exec:"+taskID),
	)
}

// EnqueueRetryExecute enqueues an execute job with a fresh job identity,
// for admin retry of a failed task (§6): "retry:"+taskID+":"+timestamp.
func (e *Enqueuer) EnqueueRetryExecute(ctx context.Context, taskID, timestamp string) error {
	return e.e.Enqueue(ctx, TaskExecuteTask, ExecutePayload{TaskID: taskID},
		job.InQueue(QueueExecute),
		job.UniqueFor(uniqueWindow),
		job.UniqueKey("retry:"+taskID+":"+timestamp),
	)
}

// IngestWorker processes ingest jobs with N concurrent handlers per
// process (§5).
type IngestWorker struct {
	m *job.Manager
}

func NewIngestWorker(pool *pgxpool.Pool, h IngestHandler, concurrency int, log *slog.Logger) (*IngestWorker, error) {
	m, err := job.NewManager(pool,
		job.WithTask(ingestTask{h: h}),
		job.WithQueue(QueueIngest, concurrency),
		job.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return &IngestWorker{m: m}, nil
}

func (w *IngestWorker) Start(ctx context.Context) error { return w.m.Start(ctx) }
func (w *IngestWorker) Stop(ctx context.Context) error   { return w.m.Stop(ctx) }
func (w *IngestWorker) Manager() *job.Manager            { return w.m }

// ExecuteWorker processes execute jobs with N concurrent handlers per
// process (§5).
type ExecuteWorker struct {
	m *job.Manager
}

func NewExecuteWorker(pool *pgxpool.Pool, h ExecuteHandler, concurrency int, log *slog.Logger) (*ExecuteWorker, error) {
	m, err := job.NewManager(pool,
		job.WithTask(executeTask{h: h}),
		job.WithQueue(QueueExecute, concurrency),
		job.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return &ExecuteWorker{m: m}, nil
}

func (w *ExecuteWorker) Start(ctx context.Context) error { return w.m.Start(ctx) }
func (w *ExecuteWorker) Stop(ctx context.Context) error  { return w.m.Stop(ctx) }
func (w *ExecuteWorker) Manager() *job.Manager            { return w.m }

type ingestTask struct{ h IngestHandler }

func (t ingestTask) Name() string { return TaskIngestMessage }
func (t ingestTask) Handle(ctx context.Context, p IngestPayload) error {
	return t.h.Handle(ctx, p)
}

type executeTask struct{ h ExecuteHandler }

func (t executeTask) Name() string { return TaskExecuteTask }
func (t executeTask) Handle(ctx context.Context, p ExecutePayload) error {
	return t.h.Handle(ctx, p)
}
