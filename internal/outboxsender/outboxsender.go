// Package outboxsender implements the outbox poller of spec.md §4.6:
// claim queued rows, send, and retry with backoff until permanently failed.
package outboxsender

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/followup-pipeline/internal/channel"
	"github.com/dmitrymomot/followup-pipeline/internal/store"
)

// Sender periodically claims and sends outbox rows, and sweeps stuck
// sending/executing rows back to a retryable state.
type Sender struct {
	outbox      *store.OutboxStore
	tasks       *store.TaskStore
	events      *store.EventStore
	channels    channel.Registry
	maxAttempts int
	pollPeriod  time.Duration
	batchSize   int
	log         *slog.Logger

	tickCount int
}

func New(outbox *store.OutboxStore, tasks *store.TaskStore, events *store.EventStore, channels channel.Registry, maxAttempts, batchSize int, pollPeriod time.Duration, log *slog.Logger) *Sender {
	return &Sender{outbox: outbox, tasks: tasks, events: events, channels: channels, maxAttempts: maxAttempts, pollPeriod: pollPeriod, batchSize: batchSize, log: log}
}

// Run blocks, polling every pollPeriod until ctx is cancelled. Every 10th
// tick also runs the stuck-claim sweep (§4.6, §9's reference strategy).
func (s *Sender) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Poll(ctx)
			s.tickCount++
			if s.tickCount%10 == 0 {
				s.Sweep(ctx)
			}
		}
	}
}

// Poll performs one claim-and-send cycle.
func (s *Sender) Poll(ctx context.Context) {
	now := time.Now().UTC()
	claimed, err := s.outbox.ClaimQueued(ctx, now, s.batchSize)
	if err != nil {
		s.log.ErrorContext(ctx, "outbox: claim failed", slog.Any("error", err))
		return
	}

	for _, m := range claimed {
		s.send(ctx, m)
	}
}

func (s *Sender) send(ctx context.Context, m store.OutboxMessage) {
	sender := s.channels.For(m.Channel)
	var sendErr error
	if sender == nil {
		sendErr = unknownChannelError(m.Channel)
	} else {
		sendErr = sender.Send(ctx, m.Payload)
	}

	now := time.Now().UTC()

	if sendErr == nil {
		if err := s.outbox.MarkSent(ctx, m.OutboxID, now); err != nil {
			s.log.ErrorContext(ctx, "outbox: mark sent failed", slog.String("outbox_id", m.OutboxID), slog.Any("error", err))
			return
		}
		if m.TaskID != nil {
			s.events.Record(ctx, *m.TaskID, m.UserID, store.EventSent, nil)
			if err := s.tasks.MarkDone(ctx, *m.TaskID, now); err != nil {
				s.log.ErrorContext(ctx, "outbox: mark task done failed", slog.String("task_id", *m.TaskID), slog.Any("error", err))
				return
			}
			s.events.Record(ctx, *m.TaskID, m.UserID, store.EventDone, nil)
		}
		return
	}

	newAttempts := m.Attempts + 1
	if newAttempts >= s.maxAttempts {
		if err := s.outbox.MarkFailed(ctx, m.OutboxID, newAttempts, now); err != nil {
			s.log.ErrorContext(ctx, "outbox: mark failed failed", slog.String("outbox_id", m.OutboxID), slog.Any("error", err))
			return
		}
		if m.TaskID != nil {
			if err := s.tasks.MarkFailed(ctx, *m.TaskID, now); err != nil {
				s.log.ErrorContext(ctx, "outbox: mark task failed failed", slog.String("task_id", *m.TaskID), slog.Any("error", err))
				return
			}
			s.events.Record(ctx, *m.TaskID, m.UserID, store.EventFailed, map[string]any{"reason": sendErr.Error()})
		}
		return
	}

	nextRetryAt := now.Add(store.Backoff(newAttempts))
	if err := s.outbox.Requeue(ctx, m.OutboxID, newAttempts, nextRetryAt, now); err != nil {
		s.log.ErrorContext(ctx, "outbox: requeue failed", slog.String("outbox_id", m.OutboxID), slog.Any("error", err))
		return
	}
	if m.TaskID != nil {
		s.events.Record(ctx, *m.TaskID, m.UserID, store.EventRetried, map[string]any{"attempt": newAttempts, "reason": sendErr.Error()})
	}
}

// Sweep returns outbox rows and task rows stuck in a mid-claim state
// beyond 10x the poll period back to a retryable state (§4.6, §9).
func (s *Sender) Sweep(ctx context.Context) {
	staleBefore := time.Now().UTC().Add(-10 * s.pollPeriod)
	now := time.Now().UTC()

	if n, err := s.outbox.ReapStuck(ctx, staleBefore, now); err != nil {
		s.log.ErrorContext(ctx, "outbox: sweep failed", slog.Any("error", err))
	} else if n > 0 {
		s.log.WarnContext(ctx, "outbox: swept stuck sending rows", slog.Int64("count", n))
	}

	if n, err := s.tasks.ReapStuck(ctx, staleBefore, now); err != nil {
		s.log.ErrorContext(ctx, "tasks: sweep failed", slog.Any("error", err))
	} else if n > 0 {
		s.log.WarnContext(ctx, "tasks: swept stuck executing/sending rows", slog.Int64("count", n))
	}
}

type unknownChannelError string

func (e unknownChannelError) Error() string { return "outbox: unknown channel: " + string(e) }
