package notification

import (
	"log/slog"

	"github.com/shaharia-lab/alertmail/internal/eventbus"
)

// Event types published by the Dispatcher.
const (
	EventDeliverySent    = "alert.delivery.sent"
	EventDeliveryFailed  = "alert.delivery.failed"
	EventBatchDispatched = "alert.batch.dispatched"
)

// Payload keys carried by delivery events.
const (
	PayloadBatchID    = "batch_id"
	PayloadBackend    = "backend"
	PayloadEmail      = "email"
	PayloadMessageID  = "message_id"
	PayloadError      = "error"
	PayloadCode       = "code"
	PayloadDurationMS = "duration_ms"
	PayloadRecipients = "recipients"
	PayloadFailed     = "failed"
)

// NewAuditListener returns a listener that writes one structured log line per
// delivery event. Other event types are ignored.
func NewAuditListener(logger *slog.Logger) eventbus.Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return func(e eventbus.Event) {
		switch e.Type {
		case EventDeliverySent:
			logger.Info("alert delivered",
				slog.String("batch_id", e.Value(PayloadBatchID)),
				slog.String("backend", e.Value(PayloadBackend)),
				slog.String("to", e.Value(PayloadEmail)),
				slog.String("message_id", e.Value(PayloadMessageID)),
				slog.String("duration_ms", e.Value(PayloadDurationMS)),
			)
		case EventDeliveryFailed:
			logger.Warn("alert delivery failed",
				slog.String("batch_id", e.Value(PayloadBatchID)),
				slog.String("backend", e.Value(PayloadBackend)),
				slog.String("to", e.Value(PayloadEmail)),
				slog.String("code", e.Value(PayloadCode)),
				slog.String("error", e.Value(PayloadError)),
			)
		case EventBatchDispatched:
			logger.Info("alert batch dispatched",
				slog.String("batch_id", e.Value(PayloadBatchID)),
				slog.String("backend", e.Value(PayloadBackend)),
				slog.String("recipients", e.Value(PayloadRecipients)),
				slog.String("failed", e.Value(PayloadFailed)),
				slog.String("duration_ms", e.Value(PayloadDurationMS)),
			)
		}
	}
}
