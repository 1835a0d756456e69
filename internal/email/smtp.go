package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"
	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/config"
)

// SMTPSender delivers mail through an SMTP relay, using implicit TLS when
// configured and STARTTLS otherwise.
type SMTPSender struct {
	config config.EmailConfig
	addr   string
	auth   smtp.Auth
	logger zerolog.Logger
}

func NewSMTPSender(cfg config.EmailConfig, logger zerolog.Logger) (*SMTPSender, error) {
	if err := validateEmailAddress(cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender email in config: %w", err)
	}
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &SMTPSender{
		config: cfg,
		addr:   fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth:   auth,
		logger: logger,
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mail, err := s.newMail()
	if err != nil {
		return err
	}
	mail.From(s.config.From)
	if s.config.FromName != "" {
		mail.FromName(s.config.FromName)
	}
	mail.To(msg.To)
	mail.Subject(msg.Subject)
	if msg.Text != "" {
		mail.Plain().Set(msg.Text)
	}
	if msg.HTML != "" {
		mail.HTML().Set(msg.HTML)
	}
	for _, a := range msg.Attachments {
		if a.ContentType != "" {
			mail.AttachWithMimeType(a.Filename, bytes.NewReader(a.Content), a.ContentType)
		} else {
			mail.Attach(a.Filename, bytes.NewReader(a.Content))
		}
	}

	if err := mail.Send(); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	s.logger.Debug().Str("subject", msg.Subject).Msg("email sent via SMTP")
	return nil
}

func (s *SMTPSender) newMail() (*mailyak.MailYak, error) {
	if !s.config.SMTPImplicitTLS {
		return mailyak.New(s.addr, s.auth), nil
	}
	mail, err := mailyak.NewWithTLS(s.addr, s.auth, &tls.Config{
		ServerName: s.config.SMTPHost,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return nil, fmt.Errorf("smtp tls client: %w", err)
	}
	return mail, nil
}
