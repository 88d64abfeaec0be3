package notification

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"github.com/shaharia-lab/alertmail/internal/build"
)

const defaultMessageIDDomain = "alertmail.local"

// composeMIME builds the multipart/alternative MIME message shared by the
// SMTP and Gmail backends. It returns the message and its Message-ID.
func composeMIME(msg Message) (*mail.Msg, string, error) {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, "", fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, "", fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, "", fmt.Errorf("invalid reply-to address: %w", err)
		}
	}

	id := newMessageID(msg.From)
	m.SetMessageIDWithValue(id)
	m.SetDate()
	m.SetUserAgent(build.UserAgent())
	m.Subject(msg.Subject)
	if msg.ListUnsubscribe != "" {
		m.SetGenHeader(mail.Header("List-Unsubscribe"), msg.ListUnsubscribe)
	}

	// Plain-text first, HTML as the preferred alternative.
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)

	return m, "<" + id + ">", nil
}

// newMessageID returns a unique Message-ID (without angle brackets) in the
// domain of the sender address.
func newMessageID(from string) string {
	domain := defaultMessageIDDomain
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = strings.TrimRight(from[at+1:], "> ")
	}
	return uuid.NewString() + "@" + domain
}
