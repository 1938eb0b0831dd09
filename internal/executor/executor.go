// Package executor implements the execute job handler of spec.md §4.5:
// build the outbound body and hand off a queued outbox message.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/followup-pipeline/internal/drafter"
	"github.com/dmitrymomot/followup-pipeline/internal/queue"
	"github.com/dmitrymomot/followup-pipeline/internal/store"
	"github.com/dmitrymomot/followup-pipeline/internal/templates"
)

// Worker handles execute jobs.
type Worker struct {
	tasks     *store.TaskStore
	users     *store.UserStore
	inbound   *store.InboundStore
	outbox    *store.OutboxStore
	events    *store.EventStore
	drafter   drafter.Drafter
	templates *templates.Renderer
	log       *slog.Logger
}

func New(tasks *store.TaskStore, users *store.UserStore, inbound *store.InboundStore, outbox *store.OutboxStore, events *store.EventStore, d drafter.Drafter, tmpl *templates.Renderer, log *slog.Logger) *Worker {
	return &Worker{tasks: tasks, users: users, inbound: inbound, outbox: outbox, events: events, drafter: d, templates: tmpl, log: log}
}

func (w *Worker) Name() string { return queue.TaskExecuteTask }

// Handle implements §4.5's six steps.
func (w *Worker) Handle(ctx context.Context, p queue.ExecutePayload) error {
	now := time.Now().UTC()

	task, err := w.tasks.MarkExecuting(ctx, p.TaskID, now)
	if err != nil {
		if err == store.ErrNotFound {
			// Not found, or status != due: tolerate queue replay.
			return nil
		}
		return err
	}
	w.events.Record(ctx, task.TaskID, task.UserID, store.EventExecuting, nil)

	user, err := w.users.Get(ctx, task.UserID)
	if err != nil {
		return err
	}
	prefs, err := w.users.Preferences(ctx, task.UserID)
	if err != nil {
		return err
	}

	channel := prefs.FallbackChannel
	if inboundMsg, err := w.inbound.Get(ctx, task.SourceInboundID); err == nil {
		channel = inboundMsg.Channel
	}
	recipient := recipientFor(user, channel)

	subject, body, err := w.buildBody(ctx, task, user, prefs)
	if err != nil {
		return fmt.Errorf("executor: build body: %w", err)
	}

	if _, err := w.outbox.Create(ctx, &task.TaskID, task.UserID, channel, store.OutboxPayload{
		To:      recipient,
		Subject: subject,
		Body:    body,
	}, now); err != nil {
		return err
	}

	if err := w.tasks.MarkSending(ctx, task.TaskID, now); err != nil {
		return err
	}
	w.events.Record(ctx, task.TaskID, task.UserID, store.EventSending, nil)

	return nil
}

func (w *Worker) buildBody(ctx context.Context, task store.Task, user store.User, prefs store.Preferences) (subject, body string, err error) {
	switch task.ActionType {
	case store.ActionRemind:
		subject, body, err = w.templates.Render("reminder.md", templates.ReminderData{
			DisplayName: user.DisplayName,
			ContactHint: task.ContactHint,
			Context:     task.Context,
		})
		if err != nil {
			return "", "", fmt.Errorf("render reminder: %w", err)
		}
		return subject, body, nil

	case store.ActionRemindAndDraft, store.ActionSend:
		draft, err := w.drafter.Draft(ctx, task.ContactHint, task.Context, prefs.Tone)
		if err != nil {
			w.log.WarnContext(ctx, "executor: drafter failed, using fallback template", slog.String("task_id", task.TaskID), slog.Any("error", err))
			return w.renderFollowUp(task)
		}

		w.events.Record(ctx, task.TaskID, task.UserID, store.EventDraftGenerated, nil)

		if task.ActionType == store.ActionSend {
			return draft.Subject, draft.Body, nil
		}
		_, body, err := w.templates.Render("draft_envelope.md", templates.DraftEnvelopeData{DraftBody: draft.Body})
		if err != nil {
			return "", "", fmt.Errorf("render draft envelope: %w", err)
		}
		return draft.Subject, body, nil

	default:
		return w.renderFollowUp(task)
	}
}

// renderFollowUp renders the plain follow-up body: the default action's
// body, and the drafter-failure fallback for ActionRemindAndDraft/ActionSend.
func (w *Worker) renderFollowUp(task store.Task) (subject, body string, err error) {
	subject, body, err = w.templates.Render("followup.md", templates.FollowUpData{
		ContactHint: task.ContactHint,
		Context:     task.Context,
	})
	if err != nil {
		return "", "", fmt.Errorf("render followup: %w", err)
	}
	return subject, body, nil
}

func recipientFor(u store.User, channel string) string {
	if channel == store.ChannelChat {
		return u.ChatNumber
	}
	return u.PrimaryEmail
}
