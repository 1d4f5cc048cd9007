package service

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/stranger/pkg/slogx"
)

// Mailer delivers verification codes.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

// LogMailer writes codes to the structured log. Used in development and
// tests where no mail relay exists.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendVerificationCode(ctx context.Context, to, code string) error {
	l := m.Logger
	if l == nil {
		l = slogx.FromContext(ctx)
	}
	l.InfoContext(ctx, "verification code issued", "to", to, "code", code)
	return nil
}

// MailerFunc adapts a func to Mailer.
type MailerFunc func(ctx context.Context, to, code string) error

func (f MailerFunc) SendVerificationCode(ctx context.Context, to, code string) error {
	return f(ctx, to, code)
}
