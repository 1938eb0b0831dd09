package ingress

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/followup-pipeline/internal/queue"
	"github.com/dmitrymomot/followup-pipeline/internal/signature"
	"github.com/dmitrymomot/followup-pipeline/internal/store"
)

// emailPayload is the validated shape of POST /webhook/email, per §6.
type emailPayload struct {
	MessageID string `json:"messageId" validate:"required"`
	From      string `json:"from" validate:"required,email"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	TextBody  string `json:"textBody" validate:"required"`
	Timestamp string `json:"timestamp"`
}

func (h *Handler) handleEmail(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "body_too_large_or_unreadable"})
		return
	}

	if !signature.VerifyEmail(h.emailSecret, r.Header.Get("X-Webhook-Signature"), body) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload emailPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "invalid_json"})
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "validation_failed"})
		return
	}

	h.ingestOne(r.Context(), w, store.ChannelEmail, payload.MessageID, payload.From, payload.TextBody)
}

// ingestOne implements §4.1 steps 1-5 for a single validated event.
func (h *Handler) ingestOne(ctx context.Context, w http.ResponseWriter, channel, providerMessageID, senderAddress, text string) {
	user, err := h.users.FindByAddress(ctx, channel, senderAddress)
	if err != nil {
		if err == store.ErrNotFound {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "unknown_sender"})
			return
		}
		h.log.ErrorContext(ctx, "ingress: user lookup failed", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	idempotencyKey := user.UserID + ":" + providerMessageID

	if existing, err := h.inbound.FindByIdempotencyKey(ctx, idempotencyKey); err == nil {
		// A prior attempt already persisted this row. If it never made it
		// onto the ingest queue (e.g. the enqueue below failed on that
		// attempt), retry the enqueue now instead of answering "duplicate"
		// and stranding it in "received" forever -- the job's UniqueKey
		// makes re-enqueuing the same idempotencyKey a safe no-op if it is
		// already queued or has already run.
		if existing.Status == store.InboundReceived {
			if err := h.enqueuer.EnqueueIngest(ctx, queue.IngestPayload{InboundID: existing.InboundID, UserID: user.UserID}, idempotencyKey); err != nil {
				h.log.ErrorContext(ctx, "ingress: re-enqueue of stranded inbound row failed", slog.String("inbound_id", existing.InboundID), slog.Any("error", err))
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	} else if err != store.ErrNotFound {
		h.log.ErrorContext(ctx, "ingress: inbound lookup failed", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	msg, err := h.inbound.Create(ctx, user.UserID, channel, providerMessageID, idempotencyKey, text)
	if err != nil {
		if err == store.ErrDuplicateInbound {
			writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
			return
		}
		h.log.ErrorContext(ctx, "ingress: persist failed, letting provider retry", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := h.enqueuer.EnqueueIngest(ctx, queue.IngestPayload{InboundID: msg.InboundID, UserID: user.UserID}, idempotencyKey); err != nil {
		// Propagate rather than swallow (§7): answer 500 so the provider
		// retries the webhook. The row is already persisted, so the retry
		// will land in the duplicate branch above, which re-attempts the
		// enqueue for rows still stuck in "received" instead of assuming
		// the first enqueue succeeded.
		h.log.ErrorContext(ctx, "ingress: enqueue ingest failed", slog.String("inbound_id", msg.InboundID), slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted", "inbound_id": msg.InboundID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
