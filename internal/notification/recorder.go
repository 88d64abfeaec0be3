package notification

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/shaharia-lab/alertmail/internal/eventbus"
	"github.com/shaharia-lab/alertmail/internal/storage"
)

const recordTimeout = 5 * time.Second

// DeliveryRecorder persists a delivery outcome.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, rec storage.DeliveryRecord) error
}

// NewRecorderListener returns a listener that stores every per-recipient
// delivery event through store. Storage errors are logged and dropped.
func NewRecorderListener(store DeliveryRecorder, logger *slog.Logger) eventbus.Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return func(e eventbus.Event) {
		var status string
		switch e.Type {
		case EventDeliverySent:
			status = storage.DeliveryStatusSent
		case EventDeliveryFailed:
			status = storage.DeliveryStatusFailed
		default:
			return
		}

		durationMS, _ := strconv.ParseInt(e.Value(PayloadDurationMS), 10, 64)
		created := e.Timestamp
		if created.IsZero() {
			created = time.Now().UTC()
		}
		rec := storage.DeliveryRecord{
			BatchID:    e.Value(PayloadBatchID),
			Backend:    e.Value(PayloadBackend),
			Email:      e.Value(PayloadEmail),
			Status:     status,
			MessageID:  e.Value(PayloadMessageID),
			ErrorMsg:   e.Value(PayloadError),
			ErrorCode:  e.Value(PayloadCode),
			DurationMS: durationMS,
			CreatedAt:  created,
		}

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := store.RecordDelivery(ctx, rec); err != nil {
			logger.Error("recording delivery",
				slog.String("batch_id", rec.BatchID),
				slog.String("to", rec.Email),
				slog.String("error", err.Error()),
			)
		}
	}
}
