package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shaharia-lab/alertmail/internal/config"
	"github.com/shaharia-lab/alertmail/internal/service"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// errSendFailures is returned when at least one recipient could not be reached.
var errSendFailures = errors.New("one or more alerts were not delivered")

// NewSendCmd returns the "send" subcommand that dispatches an alert without
// running the HTTP server.
func NewSendCmd(cfg *config.AppConfig) *cobra.Command {
	var (
		emails   []string
		platform string
		link     string
		file     string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a security alert from the command line",
		Long: `Send a security alert to one or more addresses using the configured
mail backend. The request can be given with flags or read from a YAML or
JSON file with the same fields as the POST /messages body.`,
		Example: `  alertmail send --email a@example.com --email b@example.com --platform Acme --link https://acme.example/secure
  alertmail send --file alert.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := &service.SendRequest{Emails: emails, Platform: platform, Link: link}
			if file != "" {
				fromFile, err := loadSendRequest(file)
				if err != nil {
					return err
				}
				req = mergeSendRequest(fromFile, req)
			}
			return runSend(cmd.OutOrStdout(), cfg, req)
		},
	}

	cmd.Flags().StringArrayVar(&emails, "email", nil, "Recipient address (repeatable)")
	cmd.Flags().StringVar(&platform, "platform", "", "Platform name shown in the alert")
	cmd.Flags().StringVar(&link, "link", "", "Link the recipient follows to secure the account")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON file holding emails, platform and link")
	return cmd
}

func runSend(out io.Writer, cfg *config.AppConfig, req *service.SendRequest) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.alertSvc.SendAlert(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, renderResults(result))
	if failed := result.Failed(); failed > 0 {
		return fmt.Errorf("%w: %d of %d failed", errSendFailures, failed, result.Count)
	}
	return nil
}

// loadSendRequest reads a SendRequest from a YAML or JSON file.
func loadSendRequest(path string) (*service.SendRequest, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading request file: %w", err)
	}
	var req service.SendRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parsing request file %s: %w", path, err)
	}
	return &req, nil
}

// mergeSendRequest overlays non-empty flag values on a request loaded from file.
func mergeSendRequest(base, flags *service.SendRequest) *service.SendRequest {
	merged := *base
	if len(flags.Emails) > 0 {
		merged.Emails = flags.Emails
	}
	if flags.Platform != "" {
		merged.Platform = flags.Platform
	}
	if flags.Link != "" {
		merged.Link = flags.Link
	}
	return &merged
}

// renderResults formats one table row per recipient followed by a summary line.
func renderResults(result *service.SendResult) string {
	rows := make([][]string, 0, len(result.Results))
	for i, o := range result.Results {
		status, detail := "sent", ""
		if o.Failed() {
			status, detail = "failed", o.Error.Message
			if o.Error.Code != "" {
				detail = o.Error.Code + ": " + detail
			}
		} else if o.Info != nil {
			detail = o.Info.MessageID
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), o.Email, status, detail})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "EMAIL", "STATUS", "DETAIL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 && row >= 0 && row < len(rows) {
				if rows[row][2] == "failed" {
					return cellStyle.Inherit(failStyle)
				}
				return cellStyle.Inherit(okStyle)
			}
			return cellStyle
		})

	summary := fmt.Sprintf("%s: %d sent, %d failed", result.Message, result.Count-result.Failed(), result.Failed())
	return t.String() + "\n" + summary
}
