// Package mailer provides a universal email sending interface with template rendering.
//
// The package separates email sending (via providers) from template rendering,
// allowing either to be used independently.
//
// # Architecture
//
//   - Sender: Interface that email providers implement
//   - Renderer: Converts markdown templates with YAML frontmatter to HTML and
//     plain text
//
// # Usage
//
// Basic usage with the built-in Resend provider and an embedded template set:
//
//	import (
//		"context"
//		"os"
//
//		"github.com/dmitrymomot/followup-pipeline/pkg/mailer"
//		"github.com/dmitrymomot/followup-pipeline/pkg/mailer/resend"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		sender := resend.New(resend.Config{
//			APIKey:      os.Getenv("RESEND_API_KEY"),
//			SenderEmail: "team@example.com",
//			SenderName:  "Team",
//		})
//
//		renderer := mailer.NewRenderer(emails.FS)
//
//		result, err := renderer.Render("base.html", "welcome.md", map[string]any{"Name": "John"})
//		if err != nil {
//			panic(err)
//		}
//
//		err = sender.Send(ctx, &mailer.Email{
//			To:      []string{"user@example.com"},
//			Subject: result.Metadata["subject"].(string),
//			HTML:    result.HTML,
//		})
//		if err != nil {
//			panic(err)
//		}
//	}
//
// # Templates
//
// Templates are markdown files with optional YAML frontmatter:
//
//	---
//	subject: Welcome!
//	---
//
//	# Welcome
//
//	Hello {{.Name}}, welcome to our service!
//
//	[!button|Get Started]({{.URL}})
//
// Frontmatter is parsed as plain YAML (keys are case-sensitive) and returned
// as-is in RenderResult.Metadata; Go template syntax in it is not executed.
// RenderResult carries the rendered HTML, the plain template-executed text
// (before HTML conversion, for channels that have no HTML concept), and the
// parsed frontmatter metadata.
//
// # Email Tags
//
// The Email type supports provider-specific tags for categorization:
//
//	email := &mailer.Email{
//		To:      []string{"user@example.com"},
//		Subject: "Welcome",
//		HTML:    "<p>Hello!</p>",
//		Tags:    mailer.SimpleTags("welcome", "onboarding"),
//	}
//
// # Custom Providers
//
// Implement the Sender interface to add support for other email providers:
//
//	type MySender struct{}
//
//	func (s *MySender) Send(ctx context.Context, email *mailer.Email) error {
//		// Send email using your provider's API
//		return nil
//	}
//
// # Errors
//
// The package defines several error variables for specific failure cases:
//
//   - ErrNoRecipient: No recipient specified
//   - ErrNoSubject: No subject provided
//   - ErrNoContent: No HTML content provided
//   - ErrTemplateNotFound: Template file not found
//   - ErrLayoutNotFound: Layout file not found
//   - ErrRenderFailed: Template rendering failed
//   - ErrSendFailed: Email sending failed
//   - ErrInvalidFrontmatter: Invalid YAML frontmatter
package mailer
