package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/config"
)

// Sender delivers a message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender builds the transport selected by cfg.Provider.
func NewSender(cfg config.EmailConfig, logger zerolog.Logger) (Sender, error) {
	logger = logger.With().Str("component", "email").Str("provider", cfg.Provider).Logger()
	switch cfg.Provider {
	case config.EmailProviderSMTP:
		return NewSMTPSender(cfg, logger)
	case config.EmailProviderResend:
		return NewResendSender(cfg, logger)
	case config.EmailProviderLog, "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// LogSender records messages instead of delivering them. Used when no
// transport is configured.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("email delivery disabled, message logged")
	return nil
}
