package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// LogEmailSender writes emails to the log instead of a gateway. Used when
// no SMTP provider is configured.
type LogEmailSender struct {
	Logger zerolog.Logger
}

func (s *LogEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.Logger.Info().
		Str("channel", "email").
		Str("to", to).
		Str("subject", subject).
		Msg("notification delivered to log")
	return nil
}

// LogSMSSender writes SMS messages to the log instead of a gateway.
type LogSMSSender struct {
	Logger zerolog.Logger
}

func (s *LogSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.Logger.Info().
		Str("channel", "sms").
		Str("to", to).
		Msg("notification delivered to log")
	return nil
}
