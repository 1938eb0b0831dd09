package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrymomot/followup-pipeline/internal/store"
)

// ChatSender delivers outbox payloads via an opaque chat-provider send
// API, shaped like pkg/mailer/resend's sender but generic HTTP since no
// chat-provider SDK exists in the example corpus.
type ChatSender struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewChatSender(baseURL, apiKey string, timeout time.Duration) *ChatSender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatSender{httpClient: &http.Client{Timeout: timeout}, baseURL: baseURL, apiKey: apiKey}
}

type chatSendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

func (c *ChatSender) Send(ctx context.Context, payload store.OutboxPayload) error {
	body, err := json.Marshal(chatSendRequest{To: payload.To, Text: payload.Body})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chat send: unexpected status %d", resp.StatusCode)
	}
	return nil
}
