// Package gmailauth runs the one-time OAuth2 consent flow that produces the
// refresh token used by the Gmail mail backend.
package gmailauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// Options configures Authorize.
type Options struct {
	ClientID     string
	ClientSecret string
	// Port for the localhost redirect listener; 0 picks a free port.
	Port int
	// Endpoint overrides Google's OAuth2 endpoint.
	Endpoint *oauth2.Endpoint
	// OnAuthURL receives the consent URL the user must open.
	OnAuthURL func(url string)
	Logger    *slog.Logger
}

// OAuthConfig builds the OAuth2 client configuration for the send-only Gmail scope.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     googleoauth.Endpoint,
	}
}

type callbackResult struct {
	token *oauth2.Token
	err   error
}

// Authorize listens on localhost for the OAuth2 redirect, hands the consent
// URL to opts.OnAuthURL and blocks until the code is exchanged or ctx ends.
func Authorize(ctx context.Context, opts Options) (*oauth2.Token, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, errors.New("GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	addr := fmt.Sprintf("localhost:%d", opts.Port)
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	oauthCfg := OAuthConfig(opts.ClientID, opts.ClientSecret, fmt.Sprintf("http://localhost:%d/callback", port))
	if opts.Endpoint != nil {
		oauthCfg.Endpoint = *opts.Endpoint
	}
	state := uuid.NewString()
	resultCh := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", callbackHandler(oauthCfg, state, resultCh))
	srv := &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("oauth callback server error", slog.String("error", serveErr.Error()))
		}
	}()
	defer func() { _ = srv.Close() }()

	authURL := oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if opts.OnAuthURL != nil {
		opts.OnAuthURL(authURL)
	}

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		if res.token.RefreshToken == "" {
			return nil, errors.New("google returned no refresh token; revoke the app's access and retry")
		}
		return res.token, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

const successHTML = `<!DOCTYPE html><html><body>
<h2>Authentication successful!</h2>
<p>You can close this tab and return to the terminal.</p>
<script>window.close();</script>
</body></html>`

func callbackHandler(oauthCfg *oauth2.Config, state string, resultCh chan<- callbackResult) http.HandlerFunc {
	report := func(res callbackResult) {
		select {
		case resultCh <- res:
		default:
		}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "Invalid state", http.StatusBadRequest)
			return
		}

		code := q.Get("code")
		if code == "" {
			errMsg := q.Get("error")
			if errMsg == "" {
				errMsg = "no code in callback"
			}
			report(callbackResult{err: fmt.Errorf("oauth callback error: %s", errMsg)})
			http.Error(w, "Authentication failed: "+errMsg, http.StatusBadRequest)
			return
		}

		token, err := oauthCfg.Exchange(r.Context(), code)
		if err != nil {
			report(callbackResult{err: fmt.Errorf("exchanging code: %w", err)})
			http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
			return
		}

		report(callbackResult{token: token})
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, successHTML)
	}
}
