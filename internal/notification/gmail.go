package notification

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GmailProvider delivers alerts through the Gmail API as the authorized user.
type GmailProvider struct {
	svc *gmail.Service
}

// NewGmailProvider builds a Gmail API client whose token source refreshes
// access tokens from cfg.RefreshToken.
func NewGmailProvider(ctx context.Context, cfg GmailConfig) (*GmailProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("gmail backend requires GMAIL_CLIENT_ID, GMAIL_CLIENT_SECRET and GMAIL_REFRESH_TOKEN")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     googleoauth.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}
	return newGmailProvider(svc), nil
}

func newGmailProvider(svc *gmail.Service) *GmailProvider {
	return &GmailProvider{svc: svc}
}

// Name returns the provider identifier.
func (p *GmailProvider) Name() string { return BackendGmail }

// Send uploads msg as a raw RFC 5322 message.
func (p *GmailProvider) Send(ctx context.Context, msg Message) (*Receipt, error) {
	m, _, err := composeMIME(msg)
	if err != nil {
		return nil, &SendError{Provider: BackendGmail, Code: "InvalidMessage", Err: err}
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding message: %w", err)
	}

	raw := base64.URLEncoding.EncodeToString(buf.Bytes())
	sent, err := p.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, &SendError{Provider: BackendGmail, Code: strconv.Itoa(apiErr.Code), Err: errors.New(apiErr.Message)}
		}
		return nil, &SendError{Provider: BackendGmail, Err: err}
	}

	return &Receipt{MessageID: sent.Id, Response: "thread " + sent.ThreadId}, nil
}
