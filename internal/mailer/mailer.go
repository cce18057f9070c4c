// Package mailer sends transactional email over SMTP.
package mailer

import (
	"bytes"
	"context"

	"github.com/go-faster/errors"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"shopkart_back_end/internal/config"
)

type Attachment struct {
	Name string
	Data []byte
}

type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

type SMTPMailer struct {
	cfg config.SMTPConfig
	lg  *zap.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig, lg *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, lg: lg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out := gomail.NewMsg()
	if err := out.From(m.cfg.From); err != nil {
		return errors.Wrap(err, "set from")
	}
	if err := out.To(msg.To); err != nil {
		return errors.Wrap(err, "set to")
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	for _, a := range msg.Attachments {
		if err := out.AttachReader(a.Name, bytes.NewReader(a.Data)); err != nil {
			return errors.Wrapf(err, "attach %s", a.Name)
		}
	}

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthLogin),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return errors.Wrap(err, "create smtp client")
	}

	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return errors.Wrap(err, "send mail")
	}
	m.lg.Info("Mail sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// LogMailer only logs outgoing mail. Used when no SMTP host is configured.
type LogMailer struct {
	lg *zap.Logger
}

func NewLogMailer(lg *zap.Logger) *LogMailer {
	return &LogMailer{lg: lg}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.lg.Info("Mail not sent, SMTP disabled",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}
