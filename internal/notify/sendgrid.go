package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/models"
)

const sendGridHost = "https://api.sendgrid.com"

// Mailer e-mails the hosts through SendGrid
type Mailer struct {
	cfg    config.MailConfig
	event  config.Event
	locale string
	host   string
	log    zerolog.Logger
}

// NewMailer creates a SendGrid notifier. host overrides the API host when non-empty.
func NewMailer(cfg config.MailConfig, ev config.Event, locale, host string, log zerolog.Logger) *Mailer {
	if host == "" {
		host = sendGridHost
	}
	return &Mailer{
		cfg:    cfg,
		event:  ev,
		locale: locale,
		host:   host,
		log:    log.With().Str("channel", "email").Logger(),
	}
}

func (m *Mailer) Name() string { return "email" }

// Build assembles the message for rec
func (m *Mailer) Build(rec models.GuestRecord) *mail.SGMailV3 {
	msg := mail.NewV3Mail()
	msg.SetFrom(mail.NewEmail(m.cfg.FromName, m.cfg.From))
	msg.Subject = Subject(rec, m.locale)

	p := mail.NewPersonalization()
	for _, to := range m.cfg.To {
		p.AddTos(mail.NewEmail("", to))
	}
	msg.AddPersonalizations(p)
	msg.AddContent(mail.NewContent("text/plain", FormatRSVPMessage(m.event, rec, m.locale)))
	return msg
}

// NotifyRSVP sends one mail to every configured host address
func (m *Mailer) NotifyRSVP(ctx context.Context, rec models.GuestRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	request := sendgrid.GetRequest(m.cfg.SendGridAPIKey, "/v3/mail/send", m.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(m.Build(rec))

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("failed to send mail: HTTP %d: %s", response.StatusCode, response.Body)
	}
	m.log.Info().Int("status", response.StatusCode).Str("id", rec.ID).Msg("Email sent")
	return nil
}
