// Package admin implements the optional admin HTTP surface of spec.md §6:
// reads, retries, and the redaction sweep. No auth layer is specified or
// added; this surface is assumed to sit behind a private network boundary.
package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/followup-pipeline/internal/store"
)

// Enqueuer enqueues a fresh execute job for a retried task.
type Enqueuer interface {
	EnqueueRetryExecute(ctx context.Context, taskID, timestamp string) error
}

// Handler serves the admin endpoints.
type Handler struct {
	tasks         *store.TaskStore
	outbox        *store.OutboxStore
	events        *store.EventStore
	inbound       *store.InboundStore
	enqueuer      Enqueuer
	retentionDays int
	log           *slog.Logger
}

func New(tasks *store.TaskStore, outbox *store.OutboxStore, events *store.EventStore, inbound *store.InboundStore, enqueuer Enqueuer, retentionDays int, log *slog.Logger) *Handler {
	return &Handler{tasks: tasks, outbox: outbox, events: events, inbound: inbound, enqueuer: enqueuer, retentionDays: retentionDays, log: log}
}

// Router builds the chi router for the admin process.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/tasks/failed", h.listFailedTasks)
	r.Get("/outbox/failed", h.listFailedOutbox)
	r.Get("/tasks/{taskID}/events", h.listTaskEvents)
	r.Post("/tasks/{taskID}/retry", h.retryTask)
	r.Post("/outbox/{outboxID}/retry", h.retryOutbox)
	r.Post("/retention/sweep", h.retentionSweep)
	return r
}

func (h *Handler) listFailedTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListFailed(r.Context(), 100)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) listFailedOutbox(w http.ResponseWriter, r *http.Request) {
	rows, err := h.outbox.ListFailed(r.Context(), 100)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) listTaskEvents(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	events, err := h.events.ListByTask(r.Context(), taskID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// retryTask resets a failed task to due and enqueues a fresh execute job
// with identity "retry:"+taskID+":"+timestamp, per §6.
func (h *Handler) retryTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	now := time.Now().UTC()

	task, err := h.tasks.RetryFailed(r.Context(), taskID, now)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.events.Record(r.Context(), task.TaskID, task.UserID, store.EventRetried, nil)

	timestamp := strconv.FormatInt(now.UnixNano(), 10)
	if err := h.enqueuer.EnqueueRetryExecute(r.Context(), task.TaskID, timestamp); err != nil {
		h.log.ErrorContext(r.Context(), "admin: enqueue retry failed", slog.String("task_id", task.TaskID), slog.Any("error", err))
	}

	writeJSON(w, http.StatusOK, task)
}

// retryOutbox resets a failed outbox row to queued, per §6.
func (h *Handler) retryOutbox(w http.ResponseWriter, r *http.Request) {
	outboxID := chi.URLParam(r, "outboxID")
	row, err := h.outbox.RetryFailed(r.Context(), outboxID, time.Now().UTC())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// retentionSweep redacts inbound text older than RETENTION_DAYS, per §6.
func (h *Handler) retentionSweep(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Now().UTC().AddDate(0, 0, -h.retentionDays)
	n, err := h.inbound.RedactOlderThan(r.Context(), cutoff)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"redacted": n})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if err == store.ErrNotFound {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.log.ErrorContext(r.Context(), "admin: request failed", slog.Any("error", err))
	w.WriteHeader(http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
