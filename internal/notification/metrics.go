package notification

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaharia-lab/alertmail/internal/eventbus"
)

// Metrics holds the Prometheus series fed by delivery events.
type Metrics struct {
	deliveries *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	batchSize  prometheus.Histogram
}

// NewMetrics creates the delivery metrics and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer. Collectors that are already
// registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alertmail",
			Name:      "deliveries_total",
			Help:      "Alert emails handed to the mail backend, by result.",
		}, []string{"backend", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "alertmail",
			Name:      "delivery_duration_seconds",
			Help:      "Time spent in a single backend send.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"backend"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "alertmail",
			Name:      "batch_recipients",
			Help:      "Number of recipients per alert request.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	var err error
	if m.deliveries, err = registerOrReuse(reg, m.deliveries); err != nil {
		return nil, err
	}
	if m.duration, err = registerOrReuse(reg, m.duration); err != nil {
		return nil, err
	}
	if m.batchSize, err = registerOrReuse(reg, m.batchSize); err != nil {
		return nil, err
	}
	return m, nil
}

// Listener returns an event bus listener that updates the metrics.
func (m *Metrics) Listener() eventbus.Listener {
	return func(e eventbus.Event) {
		backend := e.Value(PayloadBackend)
		switch e.Type {
		case EventDeliverySent:
			m.deliveries.WithLabelValues(backend, "sent").Inc()
			m.observeDuration(backend, e.Value(PayloadDurationMS))
		case EventDeliveryFailed:
			m.deliveries.WithLabelValues(backend, "failed").Inc()
			m.observeDuration(backend, e.Value(PayloadDurationMS))
		case EventBatchDispatched:
			if n, err := strconv.Atoi(e.Value(PayloadRecipients)); err == nil {
				m.batchSize.Observe(float64(n))
			}
		}
	}
}

func (m *Metrics) observeDuration(backend, ms string) {
	v, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return
	}
	m.duration.WithLabelValues(backend).Observe(float64(v) / 1000)
}

func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
