// Package email abstracts transactional email delivery.
//
// Services depend on the Sender interface only. The production
// implementation talks to the Resend API; when Resend is not configured the
// service runs with a LogSender that records what would have been sent.
package email

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/resend/resend-go/v3"
	"go.uber.org/zap"
)

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
	// Tag names the template the message was rendered from; used for
	// logging and metrics only.
	Tag string
}

// Sender delivers email messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ErrNoRecipient is returned for messages without a To address.
var ErrNoRecipient = errors.New("email: message has no recipient")

type resendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender returns a Sender backed by the Resend API.
// fromEmail must belong to a domain verified in Resend.
func NewResendSender(apiKey, fromName, fromEmail string) Sender {
	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}
	return &resendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *resendSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send %s email: %w", msg.Tag, err)
	}
	return nil
}

// LogSender only logs messages. Used when email is not configured.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender returns a Sender that writes each message to log.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	s.log.Info("email not sent (delivery disabled)",
		zap.String("to", msg.To),
		zap.String("tag", msg.Tag),
		zap.String("subject", msg.Subject),
	)
	return nil
}

var placeholder = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// rawHTMLSuffix marks variables holding trusted markup.
const rawHTMLSuffix = "_html"

// Render replaces {{name}} placeholders in text with vars, verbatim.
// Used for subjects. Unknown placeholders render as empty strings.
func Render(text string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		return vars[placeholder.FindStringSubmatch(m)[1]]
	})
}

// RenderBody renders an HTML body. Values are HTML-escaped, except for keys
// ending in "_html" which carry prebuilt markup (the digest item list).
func RenderBody(body string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(body, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if strings.HasSuffix(name, rawHTMLSuffix) {
			return vars[name]
		}
		return html.EscapeString(vars[name])
	})
}
