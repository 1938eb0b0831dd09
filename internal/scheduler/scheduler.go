// Package scheduler implements the periodic claim loop of spec.md §4.4:
// claim past-due pending tasks and hand them to the execute queue.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/followup-pipeline/internal/store"
)

// Enqueuer enqueues an execute job for a claimed task.
type Enqueuer interface {
	EnqueueExecute(ctx context.Context, taskID string) error
}

// Scheduler runs one tick per cron firing, single inflight per process:
// a tick in progress suppresses the next firing until it returns (§5).
type Scheduler struct {
	tasks     *store.TaskStore
	events    *store.EventStore
	enqueuer  Enqueuer
	schedule  cron.Schedule
	batchSize int
	log       *slog.Logger
}

// New parses cronExpr once at startup with the same 5-field parser
// pkg/job/manager.go uses for periodic jobs.
func New(tasks *store.TaskStore, events *store.EventStore, enqueuer Enqueuer, cronExpr string, batchSize int, log *slog.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, err
	}
	return &Scheduler{tasks: tasks, events: events, enqueuer: enqueuer, schedule: schedule, batchSize: batchSize, log: log}, nil
}

// Run blocks, firing Tick on every cron boundary until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	next := s.schedule.Next(time.Now())
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.Tick(ctx)
			next = s.schedule.Next(time.Now())
			timer.Reset(time.Until(next))
		}
	}
}

// Tick performs one claim-and-enqueue cycle.
func (s *Scheduler) Tick(ctx context.Context) {
	now := time.Now().UTC()
	claimed, err := s.tasks.ClaimDue(ctx, now, s.batchSize)
	if err != nil {
		s.log.ErrorContext(ctx, "scheduler: claim failed", slog.Any("error", err))
		return
	}

	for _, c := range claimed {
		s.events.Record(ctx, c.TaskID, c.UserID, store.EventDue, nil)

		if err := s.enqueuer.EnqueueExecute(ctx, c.TaskID); err != nil {
			s.log.ErrorContext(ctx, "scheduler: enqueue execute failed", slog.String("task_id", c.TaskID), slog.Any("error", err))
		}
	}

	if len(claimed) > 0 {
		s.log.InfoContext(ctx, "scheduler: tasks claimed", slog.Int("count", len(claimed)))
	}
}
