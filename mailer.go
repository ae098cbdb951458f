package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

type MailMessage struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

type smtpMailer struct {
	client     *mail.Client
	senderName string
	senderAddr string
}

func newSMTPMailer(cfg Config) (*smtpMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create mail client: %w", err)
	}
	return &smtpMailer{client: client, senderName: cfg.MailSenderName, senderAddr: cfg.MailSenderAddress}, nil
}

func (m *smtpMailer) Send(ctx context.Context, msg MailMessage) error {
	message := mail.NewMsg()
	if err := message.FromFormat(m.senderName, m.senderAddr); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := message.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	message.Subject(msg.Subject)
	message.SetBodyString(mail.TypeTextHTML, msg.HTML)

	if err := m.client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("could not send mail: %w", err)
	}
	return nil
}

// logMailer is used when no SMTP host is configured.
type logMailer struct{}

func (logMailer) Send(_ context.Context, msg MailMessage) error {
	slog.Info("mail not sent, no SMTP host configured", "to", msg.To, "subject", msg.Subject)
	return nil
}

func newMailer(cfg Config) (Mailer, error) {
	if cfg.SMTPHost == "" {
		return logMailer{}, nil
	}
	return newSMTPMailer(cfg)
}
