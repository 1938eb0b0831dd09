// Package extractor wraps the opaque language-model extraction service
// described in spec.md §6 behind a small Go interface.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Result is the extractor's structured output, per §6's contract.
type Result struct {
	NeedsClarification bool   `json:"needs_clarification"`
	ClarifyingQuestion string `json:"clarifying_question"`
	DueAtISO           string `json:"due_at_iso"`
	ActionType         string `json:"action_type"`
	ContactHint        string `json:"contact_hint"`
	Context            string `json:"context"`
}

// ErrMalformedResult indicates the extractor violated its own output
// contract (e.g. needs_clarification=false but due_at_iso is unparseable).
// This is treated as a permanent failure for the message (§4.2 step 4):
// retrying would just reproduce the same malformed output.
var ErrMalformedResult = errors.New("extractor: malformed result")

// Extractor calls the extraction service.
type Extractor interface {
	Extract(ctx context.Context, text, timezone string, now time.Time) (Result, error)
}

// Config configures the HTTP extractor client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is an HTTP-backed Extractor, shaped like pkg/mailer/resend's
// Sender: a config struct plus a single request method with a per-call
// timeout, since no extractor SDK exists in the example corpus.
type Client struct {
	httpClient *http.Client
	cfg        Config
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: cfg.Timeout}, cfg: cfg}
}

type extractRequest struct {
	Text     string `json:"text"`
	Timezone string `json:"timezone"`
	NowISO   string `json:"now_iso"`
}

// Extract calls the extraction service. Transport errors and 5xx
// responses are returned as plain errors (the caller/job layer retries
// them); any other non-200 status, or a 200 response that fails to decode
// or violates the output contract, returns an error wrapping
// ErrMalformedResult, which the caller treats as permanent.
func (c *Client) Extract(ctx context.Context, text, timezone string, now time.Time) (Result, error) {
	body, err := json.Marshal(extractRequest{Text: text, Timezone: timezone, NowISO: now.Format(time.RFC3339)})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Result{}, fmt.Errorf("extractor: server error: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, errors.Join(ErrMalformedResult, fmt.Errorf("extractor: unexpected status %d", resp.StatusCode))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, errors.Join(ErrMalformedResult, err)
	}

	if result.NeedsClarification {
		if result.ClarifyingQuestion == "" {
			return Result{}, ErrMalformedResult
		}
		return result, nil
	}

	if result.DueAtISO == "" {
		return Result{}, ErrMalformedResult
	}
	if _, err := time.Parse(time.RFC3339, result.DueAtISO); err != nil {
		return Result{}, errors.Join(ErrMalformedResult, err)
	}

	return result, nil
}
