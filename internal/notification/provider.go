// Package notification renders security alert emails and delivers them
// through a pluggable mail backend, one independent send per recipient.
package notification

import (
	"context"
	"fmt"
)

// Message is one fully rendered email addressed to a single recipient.
type Message struct {
	To              string
	From            string
	ReplyTo         string
	Subject         string
	HTML            string
	Text            string
	ListUnsubscribe string
}

// Receipt is what a backend reports back for an accepted message.
type Receipt struct {
	MessageID string `json:"messageId"`
	Response  string `json:"response,omitempty"`
}

// Provider is the interface for mail delivery backends.
type Provider interface {
	// Name returns the backend identifier (e.g. "ses", "smtp").
	Name() string
	// Send delivers msg to msg.To and returns the backend's receipt.
	Send(ctx context.Context, msg Message) (*Receipt, error)
}

// SendError carries a backend-specific error code alongside the failure.
type SendError struct {
	Provider string
	Code     string
	Err      error
}

func (e *SendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Sender is the identity every alert is sent from.
type Sender struct {
	Address string
}

// ListUnsubscribe returns the mailto unsubscribe hint for the sender, or ""
// when no sender address is configured.
func (s Sender) ListUnsubscribe() string {
	if s.Address == "" {
		return ""
	}
	return fmt.Sprintf("<mailto:%s?subject=unsubscribe>", s.Address)
}
