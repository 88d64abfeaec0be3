package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendProvider delivers alerts using the Resend API.
type ResendProvider struct {
	client *resend.Client
}

// NewResendProvider creates a Resend client for cfg.APIKey.
func NewResendProvider(cfg ResendConfig) (*ResendProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("resend backend requires RESEND_API_KEY")
	}
	return newResendProvider(resend.NewClient(cfg.APIKey)), nil
}

func newResendProvider(client *resend.Client) *ResendProvider {
	return &ResendProvider{client: client}
}

// Name returns the provider identifier.
func (p *ResendProvider) Name() string { return BackendResend }

// Send delivers msg with a single Emails.Send call.
func (p *ResendProvider) Send(ctx context.Context, msg Message) (*Receipt, error) {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
		Tags: []resend.Tag{
			{Name: "category", Value: "security_alert"},
		},
	}
	if msg.ListUnsubscribe != "" {
		params.Headers = map[string]string{"List-Unsubscribe": msg.ListUnsubscribe}
	}

	sent, err := p.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		var rateErr *resend.RateLimitError
		if errors.As(err, &rateErr) {
			return nil, &SendError{Provider: BackendResend, Code: "RateLimited", Err: errors.New(rateErr.Message)}
		}
		return nil, &SendError{Provider: BackendResend, Err: err}
	}
	return &Receipt{MessageID: sent.Id}, nil
}
