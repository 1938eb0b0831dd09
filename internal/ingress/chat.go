package ingress

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/dmitrymomot/followup-pipeline/internal/queue"
	"github.com/dmitrymomot/followup-pipeline/internal/signature"
	"github.com/dmitrymomot/followup-pipeline/internal/store"
)

// chatPayload mirrors the provider-shaped nested structure described in
// §6: entry[].changes[].value.messages[].
type chatPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					ID   string `json:"id"`
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "body_too_large_or_unreadable"})
		return
	}

	if !signature.VerifyChat(h.chatSecret, r.Header.Get("X-Hub-Signature-256"), body) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload chatPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "invalid_json"})
		return
	}

	ctx := r.Context()
	accepted := 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "" && msg.Type != "text" {
					continue
				}
				if msg.ID == "" || msg.From == "" || msg.Text.Body == "" {
					continue
				}
				// A partial failure processing one event must not affect
				// the others (§4.1): ingestChatEvent writes no response of
				// its own, since a batch has one HTTP response; we persist
				// everything we can and always answer 200 to suppress
				// provider-level retries.
				h.ingestChatEvent(ctx, store.ChannelChat, msg.ID, msg.From, msg.Text.Body)
				accepted++
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "accepted", "count": accepted})
}

// ingestChatEvent runs §4.1 steps 1-5 for one chat message without writing
// an HTTP response of its own (the batch handler owns the single response).
func (h *Handler) ingestChatEvent(ctx context.Context, channel, providerMessageID, senderAddress, text string) {
	user, err := h.users.FindByAddress(ctx, channel, senderAddress)
	if err != nil {
		if err != store.ErrNotFound {
			h.log.ErrorContext(ctx, "ingress: chat user lookup failed", "error", err)
		}
		return
	}

	idempotencyKey := user.UserID + ":" + providerMessageID
	if existing, err := h.inbound.FindByIdempotencyKey(ctx, idempotencyKey); err == nil {
		// Re-attempt the enqueue for a row a prior delivery persisted but
		// never queued, the same stranding this channel's enqueue error
		// below can otherwise cause (§7). UniqueKey makes this a no-op if
		// the job is already queued or has already run.
		if existing.Status == store.InboundReceived {
			if err := h.enqueuer.EnqueueIngest(ctx, queue.IngestPayload{InboundID: existing.InboundID, UserID: user.UserID}, idempotencyKey); err != nil {
				h.log.ErrorContext(ctx, "ingress: chat re-enqueue of stranded inbound row failed", "inbound_id", existing.InboundID, "error", err)
			}
		}
		return
	} else if err != store.ErrNotFound {
		h.log.ErrorContext(ctx, "ingress: chat inbound lookup failed", "error", err)
		return
	}

	msg, err := h.inbound.Create(ctx, user.UserID, channel, providerMessageID, idempotencyKey, text)
	if err != nil {
		if err != store.ErrDuplicateInbound {
			h.log.ErrorContext(ctx, "ingress: chat persist failed", "error", err)
		}
		return
	}

	if err := h.enqueuer.EnqueueIngest(ctx, queue.IngestPayload{InboundID: msg.InboundID, UserID: user.UserID}, idempotencyKey); err != nil {
		// A batch response can't fail just this one event (see handleChat);
		// the row is left in "received" and self-heals the next time the
		// provider redelivers this message, via the re-enqueue-on-duplicate
		// branch above.
		h.log.ErrorContext(ctx, "ingress: chat enqueue ingest failed", "inbound_id", msg.InboundID, "error", err)
	}
}

// handleChatVerify answers the provider subscription challenge (§6).
func (h *Handler) handleChatVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token == h.chatVerifyTok {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}
	w.WriteHeader(http.StatusForbidden)
}
