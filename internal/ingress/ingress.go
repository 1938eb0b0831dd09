// Package ingress implements the webhook HTTP surface of spec.md §4.1 and
// §6: validate, deduplicate, persist, and enqueue.
package ingress

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/followup-pipeline/internal/queue"
	"github.com/dmitrymomot/followup-pipeline/internal/store"
)

const maxBodyBytes = 1 << 20 // 1 MiB, per SPEC_FULL.md's Ingress supplement.

// Enqueuer enqueues an ingest job for a persisted inbound message.
type Enqueuer interface {
	EnqueueIngest(ctx context.Context, p queue.IngestPayload, idempotencyKey string) error
}

// Users resolves a sender address to a user, per §4.1 step 1. Satisfied by
// both *store.UserStore directly and the cached internal/userlookup.Cache.
type Users interface {
	FindByAddress(ctx context.Context, channel, address string) (store.User, error)
}

// Handler serves the ingress webhook endpoints.
type Handler struct {
	users         Users
	inbound       *store.InboundStore
	enqueuer      Enqueuer
	emailSecret   string
	chatSecret    string
	chatVerifyTok string
	validate      *validator.Validate
	log           *slog.Logger
}

func New(users Users, inbound *store.InboundStore, enqueuer Enqueuer, emailSecret, chatSecret, chatVerifyToken string, log *slog.Logger) *Handler {
	return &Handler{
		users:         users,
		inbound:       inbound,
		enqueuer:      enqueuer,
		emailSecret:   emailSecret,
		chatSecret:    chatSecret,
		chatVerifyTok: chatVerifyToken,
		validate:      validator.New(),
		log:           log,
	}
}

// Router builds the chi router for the ingress process.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/webhook/email", h.handleEmail)
	r.Post("/webhook/chat", h.handleChat)
	r.Get("/webhook/chat", h.handleChatVerify)
	return r
}
