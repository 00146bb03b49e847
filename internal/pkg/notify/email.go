package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/env"
	"github.com/ManuelReschke/CashFox/internal/pkg/mail"
)

// EmailSender delivers one HTML email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, html string) error
}

// SendGridSender uses the SendGrid v3 mail API.
type SendGridSender struct {
	APIKey   string
	From     string
	FromName string
	// Host overrides https://api.sendgrid.com, used by tests.
	Host string
}

func (s *SendGridSender) SendEmail(ctx context.Context, to, subject, html string) error {
	from := sgmail.NewEmail(s.FromName, s.From)
	recipient := sgmail.NewEmail("", to)
	message := sgmail.NewSingleEmail(from, subject, recipient, stripTags(html), html)

	request := sendgrid.GetRequest(s.APIKey, "/v3/mail/send", s.Host)
	request.Method = "POST"
	request.Body = sgmail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return apperr.External("sendgrid request failed", err)
	}
	if response.StatusCode >= 300 {
		return apperr.External(fmt.Sprintf("sendgrid error: status=%d body=%s", response.StatusCode, response.Body), nil)
	}
	log.Infof("[Notify] Email sent to %s via SendGrid (status %d)", to, response.StatusCode)
	return nil
}

// SMTPSender delegates to the SMTP mailer.
type SMTPSender struct{}

func (SMTPSender) SendEmail(_ context.Context, to, subject, html string) error {
	return mail.SendMail(to, subject, html)
}

// NewEmailSenderFromEnv prefers SendGrid and falls back to SMTP. Returns nil when neither is configured.
func NewEmailSenderFromEnv() EmailSender {
	if key := strings.TrimSpace(env.GetEnv("SENDGRID_API_KEY", "")); key != "" {
		return &SendGridSender{
			APIKey:   key,
			From:     env.GetEnv("SENDGRID_FROM", "no-reply@cashfox.app"),
			FromName: env.GetEnv("SENDGRID_FROM_NAME", "CashFox"),
			Host:     strings.TrimSpace(env.GetEnv("SENDGRID_API_HOST", "")),
		}
	}
	if mail.Configured() {
		return SMTPSender{}
	}
	return nil
}

// stripTags produces a crude plain text alternative.
func stripTags(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
