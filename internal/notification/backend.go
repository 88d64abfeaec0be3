package notification

import (
	"context"
	"fmt"
	"log/slog"
)

// NewProvider builds the backend named by cfg.Kind. It is called once at
// startup; the returned Provider is shared by all requests.
func NewProvider(ctx context.Context, cfg BackendConfig, logger *slog.Logger) (Provider, error) {
	switch cfg.Kind {
	case BackendSES:
		p, err := NewSESProvider(ctx, cfg.SES)
		if err != nil {
			return nil, err
		}
		return p, nil
	case BackendSMTP:
		p, err := NewSMTPProvider(cfg.SMTP)
		if err != nil {
			return nil, err
		}
		return p, nil
	case BackendGmail:
		p, err := NewGmailProvider(ctx, cfg.Gmail)
		if err != nil {
			return nil, err
		}
		return p, nil
	case BackendResend:
		p, err := NewResendProvider(cfg.Resend)
		if err != nil {
			return nil, err
		}
		return p, nil
	case BackendLog:
		return NewLogProvider(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail backend %q (want ses, smtp, gmail, resend or log)", cfg.Kind)
	}
}
