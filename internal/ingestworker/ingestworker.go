// Package ingestworker implements the ingest job handler of spec.md §4.2:
// load the inbound row, redact, extract, and create the task + confirming
// or clarifying outbox message.
package ingestworker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/followup-pipeline/internal/extractor"
	"github.com/dmitrymomot/followup-pipeline/internal/queue"
	"github.com/dmitrymomot/followup-pipeline/internal/redact"
	"github.com/dmitrymomot/followup-pipeline/internal/store"
	"github.com/dmitrymomot/followup-pipeline/internal/templates"
)

// fallbackClarifyingQuestion is used when the extractor fails in a way that
// a retry would not fix — i.e. when its output is malformed rather than
// when the call itself errors out.
const fallbackClarifyingQuestion = "I couldn't figure out the details — when should I remind you, and about what?"

// Worker handles ingest jobs.
type Worker struct {
	inbound   *store.InboundStore
	users     *store.UserStore
	tasks     *store.TaskStore
	outbox    *store.OutboxStore
	events    *store.EventStore
	extractor extractor.Extractor
	templates *templates.Renderer
	log       *slog.Logger
}

func New(inbound *store.InboundStore, users *store.UserStore, tasks *store.TaskStore, outbox *store.OutboxStore, events *store.EventStore, ext extractor.Extractor, tmpl *templates.Renderer, log *slog.Logger) *Worker {
	return &Worker{inbound: inbound, users: users, tasks: tasks, outbox: outbox, events: events, extractor: ext, templates: tmpl, log: log}
}

func (w *Worker) Name() string { return queue.TaskIngestMessage }

// Handle implements §4.2's six steps. All steps except event writes must
// succeed or the job fails and the queue retries it.
func (w *Worker) Handle(ctx context.Context, p queue.IngestPayload) error {
	msg, err := w.inbound.Get(ctx, p.InboundID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil
		}
		return err
	}
	if msg.Status == store.InboundProcessed {
		return nil
	}

	user, err := w.users.Get(ctx, p.UserID)
	if err != nil {
		if err == store.ErrNotFound {
			w.log.WarnContext(ctx, "ingest: user not found", slog.String("user_id", p.UserID))
			return nil
		}
		return err
	}
	prefs, err := w.users.Preferences(ctx, p.UserID)
	if err != nil {
		return err
	}

	// Task creation uses source_inbound_id as an idempotence anchor: a
	// retried job that already created a task must not create a second one.
	if existing, err := w.tasks.ByInbound(ctx, msg.InboundID); err == nil {
		_ = existing
		return w.inbound.MarkProcessed(ctx, msg.InboundID)
	} else if err != store.ErrNotFound {
		return err
	}

	safeText := redact.Text(msg.RawTextRedacted)

	now := time.Now().UTC()
	result, extractErr := w.extractor.Extract(ctx, safeText, prefs.Timezone, now)
	if extractErr != nil {
		if errors.Is(extractErr, extractor.ErrMalformedResult) {
			result = extractor.Result{
				NeedsClarification: true,
				ClarifyingQuestion: fallbackClarifyingQuestion,
			}
		} else {
			// Transient (timeout/transport/5xx): fail the job so the
			// queue retries it rather than synthesizing a fallback.
			return fmt.Errorf("ingest: extract: %w", extractErr)
		}
	}

	channel := msg.Channel
	recipient := recipientFor(user, channel)

	if result.NeedsClarification {
		task, err := w.tasks.CreateClarifying(ctx, user.UserID, msg.InboundID, result.ContactHint, result.Context)
		if err != nil {
			if err == store.ErrTaskExists {
				return w.inbound.MarkProcessed(ctx, msg.InboundID)
			}
			return err
		}
		w.events.Record(ctx, task.TaskID, user.UserID, store.EventCreated, nil)

		question := result.ClarifyingQuestion
		if question == "" {
			question = fallbackClarifyingQuestion
		}
		if _, err := w.outbox.Create(ctx, &task.TaskID, user.UserID, channel, store.OutboxPayload{
			To:   recipient,
			Body: question,
		}, now); err != nil {
			return err
		}
		w.events.Record(ctx, task.TaskID, user.UserID, store.EventClarificationSent, nil)

		return w.inbound.MarkProcessed(ctx, msg.InboundID)
	}

	dueAt, err := time.Parse(time.RFC3339, result.DueAtISO)
	if err != nil {
		return fmt.Errorf("ingest: parse due_at_iso: %w", err)
	}

	task, err := w.tasks.CreatePending(ctx, user.UserID, msg.InboundID, dueAt, result.ActionType, result.ContactHint, result.Context)
	if err != nil {
		if err == store.ErrTaskExists {
			return w.inbound.MarkProcessed(ctx, msg.InboundID)
		}
		return err
	}
	w.events.Record(ctx, task.TaskID, user.UserID, store.EventCreated, nil)

	loc, locErr := time.LoadLocation(prefs.Timezone)
	if locErr != nil {
		loc = time.UTC
		w.log.WarnContext(ctx, "ingest: invalid stored timezone, using UTC", slog.String("user_id", user.UserID), slog.String("timezone", prefs.Timezone))
	}

	_, confirmation, err := w.templates.Render("confirmation.md", templates.ConfirmationData{
		Context: result.Context,
		DueAt:   dueAt.In(loc).Format("Mon Jan 2, 3:04 PM MST"),
	})
	if err != nil {
		return fmt.Errorf("ingest: render confirmation: %w", err)
	}
	if _, err := w.outbox.Create(ctx, &task.TaskID, user.UserID, channel, store.OutboxPayload{
		To:   recipient,
		Body: confirmation,
	}, now); err != nil {
		return err
	}
	w.events.Record(ctx, task.TaskID, user.UserID, store.EventScheduled, nil)

	return w.inbound.MarkProcessed(ctx, msg.InboundID)
}

func recipientFor(u store.User, channel string) string {
	if channel == store.ChannelChat {
		return u.ChatNumber
	}
	return u.PrimaryEmail
}
