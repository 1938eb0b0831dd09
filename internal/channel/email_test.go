package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/followup-pipeline/internal/store"
	"github.com/dmitrymomot/followup-pipeline/pkg/mailer"
)

type stubMailSender struct {
	sent *mailer.Email
}

func (s *stubMailSender) Send(ctx context.Context, email *mailer.Email) error {
	s.sent = email
	return nil
}

func TestEmailSender_Send(t *testing.T) {
	t.Parallel()

	stub := &stubMailSender{}
	sender := NewEmailSender(stub, "pipeline@example.com")

	err := sender.Send(t.Context(), store.OutboxPayload{
		To:      "user@example.com",
		Subject: "Reminder",
		Body:    "**Remember** to call Alex.",
	})

	require.NoError(t, err)
	require.NotNil(t, stub.sent)
	assert.Equal(t, []string{"user@example.com"}, stub.sent.To)
	assert.Equal(t, "Reminder", stub.sent.Subject)
	assert.Equal(t, "pipeline@example.com", stub.sent.From)
	assert.Contains(t, stub.sent.HTML, "<strong>Remember</strong>")
	assert.Equal(t, "**Remember** to call Alex.", stub.sent.Text)
}
