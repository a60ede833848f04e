package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"taskboard/internal/domain/model"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

// Mailer delivers one feedback message to the team inbox.
type Mailer interface {
	SendFeedback(ctx context.Context, fb *model.Feedback) error
}

type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Pass      string
	Recipient string
}

// mailSender is the part of *mail.Client the mailer uses.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPMailer sends feedback as an HTML email with Reply-To set to the sender.
type SMTPMailer struct {
	cfg    SMTPConfig
	client mailSender
}

// NewSMTPMailer connects with STARTTLS, or implicit TLS on port 465, and
// authenticates as cfg.User, which is also the From address.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.User == "" {
		return nil, errors.New("smtp: a user is required as the sender address")
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Pass),
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client for %s: %w", cfg.Host, err)
	}
	return &SMTPMailer{cfg: cfg, client: client}, nil
}

var feedbackTemplate = template.Must(template.New("feedback").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 20px auto;">
  <h1>New Feedback from Taskboard</h1>
  <p><strong>Name:</strong> {{.Name}}</p>
  <p><strong>Email:</strong> {{.Email}}</p>
  <p><strong>Subject:</strong> {{.Subject}}</p>
  <h3>Message:</h3>
  <p style="white-space: pre-wrap;">{{.Message}}</p>
  <p style="color: #888; font-size: 12px;">Received on: {{.SubmittedAt.Format "2006-01-02 15:04:05 MST"}}</p>
</div>
`))

func renderFeedback(fb *model.Feedback) (string, error) {
	var body bytes.Buffer
	if err := feedbackTemplate.Execute(&body, fb); err != nil {
		return "", fmt.Errorf("render feedback email: %w", err)
	}
	return body.String(), nil
}

func (m *SMTPMailer) buildMessage(fb *model.Feedback) (*mail.Msg, error) {
	body, err := renderFeedback(fb)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(fb.Name, m.cfg.User); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(m.cfg.Recipient); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	if err := msg.ReplyTo(fb.Email); err != nil {
		return nil, fmt.Errorf("reply-to address: %w", err)
	}
	msg.Subject("Taskboard Feedback: " + fb.Subject)
	msg.SetDateWithValue(fb.SubmittedAt)
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

func (m *SMTPMailer) SendFeedback(ctx context.Context, fb *model.Feedback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.buildMessage(fb)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send via %s: %w", m.cfg.Host, err)
	}
	return nil
}

// LogMailer only logs. Used when no SMTP host is configured.
type LogMailer struct {
	log *logrus.Entry
}

func NewLogMailer(log *logrus.Entry) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendFeedback(_ context.Context, fb *model.Feedback) error {
	m.log.WithFields(logrus.Fields{
		"feedback_id": fb.ID,
		"from":        fb.Email,
		"subject":     fb.Subject,
	}).Info("feedback received (email delivery disabled)")
	return nil
}
