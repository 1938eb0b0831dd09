package channel

import (
	"bytes"
	"context"

	"github.com/yuin/goldmark"

	"github.com/dmitrymomot/followup-pipeline/internal/store"
	"github.com/dmitrymomot/followup-pipeline/pkg/mailer"
)

// EmailSender delivers outbox payloads via pkg/mailer, rendering the
// markdown body to HTML with a default goldmark processor (without the
// button extension that pkg/mailer.Renderer adds for templated mail).
type EmailSender struct {
	sender mailer.Sender
	md     goldmark.Markdown
	from   string
}

func NewEmailSender(sender mailer.Sender, from string) *EmailSender {
	return &EmailSender{sender: sender, md: goldmark.New(), from: from}
}

func (e *EmailSender) Send(ctx context.Context, payload store.OutboxPayload) error {
	var html bytes.Buffer
	if err := e.md.Convert([]byte(payload.Body), &html); err != nil {
		return err
	}

	email := &mailer.Email{
		To:      []string{payload.To},
		Subject: payload.Subject,
		HTML:    html.String(),
		Text:    payload.Body,
		From:    e.from,
	}
	return e.sender.Send(ctx, email)
}
