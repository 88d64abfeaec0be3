package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/shaharia-lab/alertmail/internal/eventbus"
)

const (
	defaultSendTimeout = 30 * time.Second
	tracerName         = "github.com/shaharia-lab/alertmail/internal/notification"
)

// Outcome is the result of sending to one recipient. Exactly one of Info and
// Error is set.
type Outcome struct {
	Email string   `json:"email"`
	Info  *Receipt `json:"info,omitempty"`
	Error *Failure `json:"error,omitempty"`
}

// Failed reports whether the send to this recipient failed.
func (o Outcome) Failed() bool { return o.Error != nil }

// Failure describes why a send failed.
type Failure struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Dispatcher fans an alert out to many recipients through one Provider and
// collects one Outcome per recipient.
type Dispatcher struct {
	provider Provider
	timeout  time.Duration
	limit    int
	bus      eventbus.EventBus
	logger   *slog.Logger
	tracer   trace.Tracer
	inflight metric.Int64UpDownCounter
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSendTimeout bounds every individual send. Non-positive values are ignored.
func WithSendTimeout(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.timeout = d
		}
	}
}

// WithConcurrencyLimit bounds the number of in-flight sends per Dispatch
// call. Zero means unbounded.
func WithConcurrencyLimit(n int) DispatcherOption {
	return func(dp *Dispatcher) {
		dp.limit = n
	}
}

// WithEventBus publishes a delivery event for every recipient and batch.
func WithEventBus(bus eventbus.EventBus) DispatcherOption {
	return func(dp *Dispatcher) {
		dp.bus = bus
	}
}

// WithDispatcherLogger sets the logger used for per-send debug output.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(dp *Dispatcher) {
		dp.logger = logger
	}
}

// NewDispatcher creates a Dispatcher for provider.
func NewDispatcher(provider Provider, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		provider: provider,
		timeout:  defaultSendTimeout,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	inflight, err := otel.Meter(tracerName).Int64UpDownCounter("alertmail.sends.inflight",
		metric.WithDescription("Sends currently waiting on the mail backend"),
		metric.WithUnit("{send}"),
	)
	if err != nil {
		d.logger.Warn("creating inflight instrument", slog.String("error", err.Error()))
		inflight = noop.Int64UpDownCounter{}
	}
	d.inflight = inflight
	return d
}

// Backend returns the name of the underlying provider.
func (d *Dispatcher) Backend() string { return d.provider.Name() }

// Dispatch sends alert to every recipient concurrently and waits for all of
// them to settle. outcomes[i] always belongs to recipients[i]; a failure for
// one recipient never affects another.
//
// Sends are detached from ctx cancellation (its values, including the trace
// span, are kept) so a disconnecting caller does not abort a half-sent batch.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *Alert, from Sender, recipients []string) []Outcome {
	outcomes := make([]Outcome, len(recipients))
	if len(recipients) == 0 {
		return outcomes
	}

	batchID := uuid.NewString()
	ctx = context.WithoutCancel(ctx)
	ctx, span := d.tracer.Start(ctx, "notification.Dispatch", trace.WithAttributes(
		attribute.String("mail.backend", d.provider.Name()),
		attribute.String("mail.batch_id", batchID),
		attribute.Int("mail.recipients", len(recipients)),
	))
	defer span.End()

	start := time.Now()
	var g errgroup.Group
	if d.limit > 0 {
		g.SetLimit(d.limit)
	}
	for i, to := range recipients {
		g.Go(func() error {
			outcomes[i] = d.deliver(ctx, batchID, alert.Message(from, to))
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	span.SetAttributes(attribute.Int("mail.failed", failed))
	d.publish(EventBatchDispatched, map[string]string{
		PayloadBatchID:    batchID,
		PayloadBackend:    d.provider.Name(),
		PayloadRecipients: strconv.Itoa(len(recipients)),
		PayloadFailed:     strconv.Itoa(failed),
		PayloadDurationMS: strconv.FormatInt(time.Since(start).Milliseconds(), 10),
	})
	return outcomes
}

// deliver performs a single send and converts its result (or panic) into an Outcome.
func (d *Dispatcher) deliver(ctx context.Context, batchID string, msg Message) (out Outcome) {
	out.Email = msg.To

	ctx, span := d.tracer.Start(ctx, "notification.Send", trace.WithAttributes(
		attribute.String("mail.backend", d.provider.Name()),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	backendAttr := metric.WithAttributes(attribute.String("backend", d.provider.Name()))
	d.inflight.Add(ctx, 1, backendAttr)

	start := time.Now()
	defer func() {
		d.inflight.Add(ctx, -1, backendAttr)
		if r := recover(); r != nil {
			out.Info = nil
			out.Error = &Failure{Message: fmt.Sprintf("provider panicked: %v", r), Code: "Internal"}
		}
		d.record(span, batchID, out, time.Since(start))
	}()

	receipt, err := d.provider.Send(ctx, msg)
	switch {
	case err != nil:
		out.Error = failureFromError(err)
	case receipt == nil:
		out.Info = &Receipt{}
	default:
		out.Info = receipt
	}
	return out
}

func (d *Dispatcher) record(span trace.Span, batchID string, out Outcome, elapsed time.Duration) {
	payload := map[string]string{
		PayloadBatchID:    batchID,
		PayloadBackend:    d.provider.Name(),
		PayloadEmail:      out.Email,
		PayloadDurationMS: strconv.FormatInt(elapsed.Milliseconds(), 10),
	}

	if out.Failed() {
		span.SetStatus(codes.Error, out.Error.Message)
		payload[PayloadError] = out.Error.Message
		payload[PayloadCode] = out.Error.Code
		d.logger.Debug("send failed",
			slog.String("batch_id", batchID),
			slog.String("to", out.Email),
			slog.String("error", out.Error.Message),
		)
		d.publish(EventDeliveryFailed, payload)
		return
	}

	payload[PayloadMessageID] = out.Info.MessageID
	d.logger.Debug("send accepted",
		slog.String("batch_id", batchID),
		slog.String("to", out.Email),
		slog.String("message_id", out.Info.MessageID),
	)
	d.publish(EventDeliverySent, payload)
}

func (d *Dispatcher) publish(eventType string, payload map[string]string) {
	if d.bus != nil {
		d.bus.Publish(eventType, payload)
	}
}

// failureFromError extracts the user-facing message and code from err.
func failureFromError(err error) *Failure {
	f := &Failure{Message: err.Error()}

	var sendErr *SendError
	if errors.As(err, &sendErr) {
		f.Code = sendErr.Code
		if sendErr.Err != nil {
			f.Message = sendErr.Err.Error()
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		f.Code = "Timeout"
	}
	return f
}
