package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/alertmail/internal/config"
	"github.com/shaharia-lab/alertmail/internal/gmailauth"
)

// NewGmailAuthCmd returns the "gmail-auth" subcommand that obtains a Gmail
// refresh token for the gmail mail backend.
func NewGmailAuthCmd(cfg *config.AppConfig) *cobra.Command {
	var (
		port    int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "gmail-auth",
		Short: "Authorize alertmail to send through a Gmail account",
		Long: `Run the OAuth2 consent flow for GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET
and print the GMAIL_REFRESH_TOKEN to configure the gmail backend with.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
			defer cancelTimeout()

			out := cmd.OutOrStdout()
			tok, err := gmailauth.Authorize(ctx, gmailauth.Options{
				ClientID:     cfg.GmailClientID,
				ClientSecret: cfg.GmailClientSecret,
				Port:         port,
				OnAuthURL: func(url string) {
					fmt.Fprintf(out, "Open this URL in your browser to authorize alertmail:\n\n  %s\n\nWaiting for authorization...\n", url)
				},
			})
			if err != nil {
				return fmt.Errorf("gmail authorization: %w", err)
			}

			fmt.Fprintf(out, "\nAdd this to your environment:\n\nGMAIL_REFRESH_TOKEN=%s\n", tok.RefreshToken)
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Local port for the OAuth redirect (0 picks a free port)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for the browser authorization")
	return cmd
}
