package gmailauth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
)

func fakeTokenServer(t *testing.T, refreshToken string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"at-1","token_type":"Bearer","expires_in":3600,"refresh_token":"`+refreshToken+`"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOAuthConfig(t *testing.T) {
	cfg := OAuthConfig("id", "secret", "http://localhost:9999/callback")

	assert.Equal(t, []string{gmail.GmailSendScope}, cfg.Scopes)
	assert.Equal(t, "http://localhost:9999/callback", cfg.RedirectURL)
	assert.Contains(t, cfg.Endpoint.AuthURL, "accounts.google.com")
}

func TestCallbackHandler(t *testing.T) {
	tokenSrv := fakeTokenServer(t, "rt-1")
	cfg := OAuthConfig("id", "secret", "http://localhost/callback")
	cfg.Endpoint = oauth2.Endpoint{TokenURL: tokenSrv.URL, AuthStyle: oauth2.AuthStyleInParams}

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantToken  bool
		wantResult bool
	}{
		{"success", "state=s1&code=good-code", http.StatusOK, true, true},
		{"state mismatch", "state=other&code=good-code", http.StatusBadRequest, false, false},
		{"user denied", "state=s1&error=access_denied", http.StatusBadRequest, false, true},
		{"exchange fails", "state=s1&code=bad-code", http.StatusInternalServerError, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resultCh := make(chan callbackResult, 1)
			h := callbackHandler(cfg, "s1", resultCh)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil))
			assert.Equal(t, tt.wantStatus, w.Code)

			select {
			case res := <-resultCh:
				require.True(t, tt.wantResult, "unexpected result")
				if tt.wantToken {
					require.NoError(t, res.err)
					assert.Equal(t, "rt-1", res.token.RefreshToken)
				} else {
					assert.Error(t, res.err)
				}
			default:
				assert.False(t, tt.wantResult, "expected a callback result")
			}
		})
	}
}

func TestAuthorize_EndToEnd(t *testing.T) {
	tokenSrv := fakeTokenServer(t, "rt-42")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tok, err := Authorize(ctx, Options{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     &oauth2.Endpoint{AuthURL: "https://auth.example/authorize", TokenURL: tokenSrv.URL, AuthStyle: oauth2.AuthStyleInParams},
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnAuthURL: func(authURL string) {
			u, err := url.Parse(authURL)
			require.NoError(t, err)
			q := u.Query()
			assert.Equal(t, "offline", q.Get("access_type"))

			// Simulate the browser redirect back to the local listener.
			go func() {
				cb := q.Get("redirect_uri") + "?state=" + url.QueryEscape(q.Get("state")) + "&code=good-code"
				resp, err := http.Get(cb) //nolint:gosec,noctx
				if err == nil {
					_ = resp.Body.Close()
				}
			}()
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "rt-42", tok.RefreshToken)
}

func TestAuthorize_RequiresCredentials(t *testing.T) {
	_, err := Authorize(context.Background(), Options{})
	assert.ErrorContains(t, err, "GMAIL_CLIENT_ID")
}

func TestAuthorize_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	_, err := Authorize(ctx, Options{
		ClientID:     "id",
		ClientSecret: "secret",
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnAuthURL:    func(string) { cancel() },
	})
	assert.ErrorIs(t, err, context.Canceled)
}
