package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shaharia-lab/alertmail/internal/build"
	"github.com/shaharia-lab/alertmail/internal/config"
	"github.com/shaharia-lab/alertmail/internal/eventbus"
	"github.com/shaharia-lab/alertmail/internal/logger"
	"github.com/shaharia-lab/alertmail/internal/notification"
	"github.com/shaharia-lab/alertmail/internal/scheduler"
	"github.com/shaharia-lab/alertmail/internal/service"
	"github.com/shaharia-lab/alertmail/internal/storage"
	"github.com/shaharia-lab/alertmail/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// app holds the long-lived dependencies shared by serve and send.
type app struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	alertSvc service.AlertService
	backend  string

	// Set only when the delivery log is enabled.
	deliverySvc service.DeliveryService
	retention   *scheduler.Scheduler

	logCloser io.Closer
	tel       *telemetry.Telemetry
	bus       eventbus.EventBus
	db        *sql.DB
}

func newApp(ctx context.Context, cfg *config.AppConfig) (*app, error) {
	baseLogger, logCloser, err := logger.New(logger.Options{
		Level: cfg.SlogLevel(),
		File:  cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	a := &app{logCloser: logCloser, logger: baseLogger}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a.tel, err = telemetry.Setup(ctx, telemetry.Options{
		ServiceName:    build.ServiceName,
		ServiceVersion: build.Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Registry:       a.registry,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	a.logger = a.tel.Logger(baseLogger)

	provider, err := notification.NewProvider(ctx, cfg.Backend(), a.logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("initializing mail backend: %w", err)
	}
	a.backend = provider.Name()

	metrics, err := notification.NewMetrics(a.registry)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("registering delivery metrics: %w", err)
	}

	a.bus = eventbus.New(0, a.logger)
	a.bus.Subscribe(notification.NewAuditListener(a.logger))
	a.bus.Subscribe(metrics.Listener())

	if cfg.DeliveryLogDB != "" {
		if err := a.openDeliveryLog(ctx, cfg); err != nil {
			a.close()
			return nil, err
		}
	}

	dispatcher := notification.NewDispatcher(provider,
		notification.WithSendTimeout(cfg.SendTimeout),
		notification.WithConcurrencyLimit(cfg.MaxConcurrentSends),
		notification.WithEventBus(a.bus),
		notification.WithDispatcherLogger(a.logger),
	)
	a.alertSvc = service.NewAlertService(dispatcher, cfg.Sender(), a.logger)

	return a, nil
}

// openDeliveryLog opens the SQLite delivery log, records every delivery
// event into it and prepares the retention job.
func (a *app) openDeliveryLog(ctx context.Context, cfg *config.AppConfig) error {
	db, created, err := storage.OpenDeliveryDB(ctx, cfg.DeliveryLogDB)
	if err != nil {
		return fmt.Errorf("opening delivery log: %w", err)
	}
	a.db = db
	if created {
		a.logger.Info("delivery log created", slog.String("path", cfg.DeliveryLogDB))
	}

	store := storage.NewSQLiteDeliveryStore(db)
	a.bus.Subscribe(notification.NewRecorderListener(store, a.logger))
	a.deliverySvc = service.NewDeliveryService(store)

	a.retention, err = scheduler.New(scheduler.Config{
		Store:          store,
		Retention:      cfg.DeliveryLogRetention,
		Schedule:       cfg.DeliveryLogPruneSchedule,
		Logger:         a.logger,
		EventPublisher: a.bus,
	})
	if err != nil {
		return fmt.Errorf("creating delivery log retention: %w", err)
	}
	return nil
}

// startRetention starts pruning the delivery log, if enabled.
func (a *app) startRetention(ctx context.Context) error {
	if a.retention == nil {
		return nil
	}
	return a.retention.Start(ctx)
}

// close stops background jobs, drains pending delivery events, flushes
// telemetry and releases the database and log file.
func (a *app) close() {
	if a.retention != nil {
		if err := a.retention.Stop(); err != nil {
			a.logger.Warn("stopping retention job", slog.String("error", err.Error()))
		}
	}
	if a.bus != nil {
		a.bus.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("closing delivery log", slog.String("error", err.Error()))
		}
	}
	if a.tel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.tel.Shutdown(ctx); err != nil {
			a.logger.Warn("telemetry shutdown", slog.String("error", err.Error()))
		}
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}
