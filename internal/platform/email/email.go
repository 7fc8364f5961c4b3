// Package email delivers notification mail through SMTP or an HTTP provider.
package email

import (
	"context"
	"errors"
	"strings"

	"hris/internal/platform/config"
)

var (
	ErrRateLimited     = errors.New("email provider rate limited")
	ErrPaymentRequired = errors.New("email provider payment required")
)

type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Provider() string
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, Message) error { return nil }
func (noopMailer) Provider() string                   { return config.EmailProviderNone }

func New(cfg config.Config) Mailer {
	switch cfg.EmailProvider {
	case config.EmailProviderSMTP:
		if cfg.SMTPHost != "" {
			return &smtpMailer{cfg: cfg}
		}
	case config.EmailProviderHTTP:
		if cfg.EmailAPIURL != "" && cfg.EmailAPIKey != "" {
			return NewHTTPMailer(cfg.EmailAPIURL, cfg.EmailAPIKey)
		}
	}
	return noopMailer{}
}

func recipients(to []string) []string {
	out := make([]string, 0, len(to))
	for _, addr := range to {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
