package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/alertmail/internal/api"
	"github.com/shaharia-lab/alertmail/internal/build"
	"github.com/shaharia-lab/alertmail/internal/config"
	"github.com/shaharia-lab/alertmail/internal/server"
)

// NewServeCmd returns the "serve" subcommand that starts the HTTP server.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the alert HTTP API",
		Long: `Start the HTTP server exposing POST /messages, which sends a security
alert email to every address in the request.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")
	return cmd
}

func runServe(cfg *config.AppConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	a.logger.Info("alertmail starting",
		slog.Int("port", cfg.Port),
		slog.String("backend", a.backend),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
		slog.String("build_date", build.BuildDate),
	)

	srv, err := server.New(api.New(a.alertSvc, a.deliverySvc, a.logger), server.Options{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins(),
		Registry:       a.registry,
		Logger:         a.logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if err := a.startRetention(ctx); err != nil {
		return fmt.Errorf("starting delivery log retention: %w", err)
	}

	printBanner(build.Version, fmt.Sprintf("http://localhost:%d", cfg.Port), a.backend)
	return srv.Run(ctx)
}

// printBanner writes the startup banner to stdout.
func printBanner(version, serverURL, backend string) {
	fmt.Print(`
       _           _                   _ _
  __ _| | ___ _ __| |_ _ __ ___   __ _(_) |
 / _` + "`" + ` | |/ _ \ '__| __| '_ ` + "`" + ` _ \ / _` + "`" + ` | | |
| (_| | |  __/ |  | |_| | | | | | (_| | | |
 \__,_|_|\___|_|   \__|_| |_| |_|\__,_|_|_|

`)
	fmt.Printf("alertmail %s running on %s\n", version, serverURL)
	fmt.Printf("  POST /messages   send alerts (backend: %s)\n", backend)
	fmt.Printf("  GET  /deliveries delivery log (when DELIVERY_LOG_DB is set)\n")
	fmt.Printf("  GET  /health     health check\n")
	fmt.Printf("  GET  /metrics    prometheus metrics\n")
	fmt.Printf("  GET  /api-docs   API documentation\n\n")
}
