package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/followup-pipeline/pkg/mailer"
)

func TestRender_ReminderUsesFrontmatterSubject(t *testing.T) {
	t.Parallel()

	r := New(mailer.Config{})

	subject, body, err := r.Render("reminder.md", ReminderData{
		DisplayName: "Jamie",
		ContactHint: "Alex",
		Context:     "renew the contract",
	})

	require.NoError(t, err)
	assert.Equal(t, "Reminder", subject)
	assert.Contains(t, body, "Jamie")
	assert.Contains(t, body, "Alex")
	assert.Contains(t, body, "renew the contract")
}

func TestRender_FollowUp(t *testing.T) {
	t.Parallel()

	r := New(mailer.Config{})

	subject, body, err := r.Render("followup.md", FollowUpData{ContactHint: "Alex", Context: "renew the contract"})

	require.NoError(t, err)
	assert.Equal(t, "Follow-up", subject)
	assert.Contains(t, body, "Alex")
	assert.Contains(t, body, "renew the contract")
}

func TestRender_DraftEnvelope_NoFrontmatterUsesFallbackSubject(t *testing.T) {
	t.Parallel()

	r := New(mailer.Config{FallbackSubject: "Notification"})

	subject, body, err := r.Render("draft_envelope.md", DraftEnvelopeData{DraftBody: "Draft text"})

	require.NoError(t, err)
	assert.Equal(t, "Notification", subject)
	assert.Contains(t, body, "Draft text")
	assert.Contains(t, body, "Here is a draft you can use")
}

func TestRender_Confirmation(t *testing.T) {
	t.Parallel()

	r := New(mailer.Config{})

	_, body, err := r.Render("confirmation.md", ConfirmationData{Context: "renew the contract", DueAt: "Mon Jan 2, 3:04 PM MST"})

	require.NoError(t, err)
	assert.Contains(t, body, "renew the contract")
	assert.Contains(t, body, "Mon Jan 2, 3:04 PM MST")
}

func TestRender_UnknownTemplateErrors(t *testing.T) {
	t.Parallel()

	r := New(mailer.Config{})

	_, _, err := r.Render("does-not-exist.md", nil)

	assert.Error(t, err)
}
