package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/alertmail/internal/config"
)

// annotationNeedsConfig marks commands that read the environment configuration.
const annotationNeedsConfig = "alertmail/needs-config"

// loadConfig is replaced in tests.
var loadConfig = config.Load

// NewRootCmd builds the alertmail command tree around cfg. The environment
// configuration is loaded into cfg only before commands that use it, so
// version and update keep working with a broken environment.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	root := &cobra.Command{
		Use:           "alertmail",
		Short:         "Security alert email service",
		Long:          "alertmail sends \"new login\" security alert emails through SES, SMTP, Gmail or Resend.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[annotationNeedsConfig] == "" {
				return nil
			}
			loaded, err := loadConfig()
			if err != nil {
				return err
			}
			*cfg = *loaded
			return nil
		},
	}

	root.AddCommand(needsConfig(NewServeCmd(cfg)))
	root.AddCommand(needsConfig(NewSendCmd(cfg)))
	root.AddCommand(needsConfig(NewGmailAuthCmd(cfg)))
	root.AddCommand(NewVersionCmd())
	root.AddCommand(NewUpdateCmd())
	return root
}

func needsConfig(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationNeedsConfig] = "true"
	return cmd
}

// Execute loads .env and runs the root command.
func Execute() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	cfg := &config.AppConfig{Port: config.DefaultPort}
	if err := NewRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
