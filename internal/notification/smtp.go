package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/wneessen/go-mail"
)

// SMTPProvider delivers alerts via SMTP submission using the go-mail library.
type SMTPProvider struct {
	config  SMTPConfig
	options []mail.Option
}

// NewSMTPProvider resolves config (service preset, defaults) and validates it
// by constructing a client once. Connections are opened per send.
func NewSMTPProvider(config SMTPConfig) (*SMTPProvider, error) {
	resolved, err := config.resolve()
	if err != nil {
		return nil, err
	}

	opts := []mail.Option{
		mail.WithPort(resolved.Port),
		mail.WithTLSPolicy(tlsPolicyFromEncryption(resolved.Encryption)),
	}
	if resolved.Encryption == EncryptionSSLTLS {
		opts = append(opts, mail.WithSSL())
	}
	if resolved.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(resolved.Timeout))
	}
	if resolved.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(resolved.Username),
			mail.WithPassword(resolved.Password),
		)
	}

	if _, err := mail.NewClient(resolved.Host, opts...); err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return &SMTPProvider{config: resolved, options: opts}, nil
}

// Name returns the provider identifier.
func (p *SMTPProvider) Name() string { return BackendSMTP }

// Send delivers msg over a fresh SMTP connection. A client per send keeps
// concurrent sends from serializing on one connection.
func (p *SMTPProvider) Send(ctx context.Context, msg Message) (*Receipt, error) {
	m, id, err := composeMIME(msg)
	if err != nil {
		return nil, &SendError{Provider: BackendSMTP, Code: "InvalidMessage", Err: err}
	}

	c, err := mail.NewClient(p.config.Host, p.options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		var sendErr *mail.SendError
		if errors.As(err, &sendErr) {
			return nil, &SendError{Provider: BackendSMTP, Code: smtpErrorCode(sendErr), Err: err}
		}
		return nil, &SendError{Provider: BackendSMTP, Err: err}
	}

	return &Receipt{
		MessageID: id,
		Response:  fmt.Sprintf("accepted by %s:%d", p.config.Host, p.config.Port),
	}, nil
}

// smtpErrorCode prefers the enhanced status code (e.g. "5.1.1") and falls
// back to the basic SMTP reply code.
func smtpErrorCode(err *mail.SendError) string {
	if code := err.EnhancedStatusCode(); code != "" {
		return code
	}
	if code := err.ErrorCode(); code > 0 {
		return strconv.Itoa(code)
	}
	return ""
}

// tlsPolicyFromEncryption converts the encryption string to a go-mail TLSPolicy.
func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case EncryptionSSLTLS, EncryptionSTARTTLS:
		return mail.TLSMandatory
	default:
		return mail.NoTLS
	}
}
