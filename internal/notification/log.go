package notification

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogProvider logs alerts instead of sending them.
// Useful for development and testing.
type LogProvider struct {
	logger *slog.Logger
}

// NewLogProvider creates a log-based provider.
func NewLogProvider(logger *slog.Logger) *LogProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProvider{logger: logger}
}

// Name returns the provider identifier.
func (p *LogProvider) Name() string { return BackendLog }

// Send logs the message and returns a synthetic receipt.
func (p *LogProvider) Send(_ context.Context, msg Message) (*Receipt, error) {
	id := "log-" + uuid.NewString()
	p.logger.Info("email (not sent, log backend)",
		slog.String("message_id", id),
		slog.String("from", msg.From),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("text", msg.Text),
	)
	return &Receipt{MessageID: id, Response: "logged"}, nil
}
