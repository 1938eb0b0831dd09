// Package templates composes the pipeline's fixed set of outbound message
// bodies (reminder, drafter-failure fallback, draft envelope, scheduling
// confirmation) from frontmatter markdown templates via pkg/mailer.Renderer,
// rather than hand-rolled string formatting. The rendered body is the
// markdown text persisted in store.OutboxPayload.Body; channel senders
// convert it to the wire format their provider needs at delivery time.
package templates

import (
	"embed"

	"github.com/dmitrymomot/followup-pipeline/pkg/mailer"
)

//go:embed messages layouts
var files embed.FS

const defaultLayout = "base.html"

// Renderer renders the pipeline's message templates.
type Renderer struct {
	render          *mailer.Renderer
	layout          string
	fallbackSubject string
}

// New builds a Renderer from the process's mailer configuration.
func New(cfg mailer.Config) *Renderer {
	layout := cfg.DefaultLayout
	if layout == "" {
		layout = defaultLayout
	}
	return &Renderer{
		render: mailer.NewRendererWithConfig(files, mailer.RendererConfig{
			TemplateDir: "messages",
			LayoutDir:   "layouts",
		}),
		layout:          layout,
		fallbackSubject: cfg.FallbackSubject,
	}
}

// Render executes the named message template against data. It returns the
// template's frontmatter "subject" (falling back to the configured
// MAILER_FALLBACK_SUBJECT when the template declares none) and the body
// markdown -- the Renderer's Text result, i.e. the template executed but
// not yet converted to HTML, since callers store markdown and render HTML
// only at send time.
func (r *Renderer) Render(name string, data any) (subject, body string, err error) {
	result, err := r.render.Render(r.layout, name, data)
	if err != nil {
		return "", "", err
	}
	subject = r.fallbackSubject
	if s, ok := result.Metadata["subject"].(string); ok && s != "" {
		subject = s
	}
	return subject, result.Text, nil
}

// ReminderData is the reminder.md template's data.
type ReminderData struct {
	DisplayName string
	ContactHint string
	Context     string
}

// FollowUpData is the followup.md template's data, used both for the
// default follow-up body and as the fallback when the drafter fails.
type FollowUpData struct {
	ContactHint string
	Context     string
}

// DraftEnvelopeData is the draft_envelope.md template's data.
type DraftEnvelopeData struct {
	DraftBody string
}

// ConfirmationData is the confirmation.md template's data.
type ConfirmationData struct {
	Context string
	DueAt   string
}
