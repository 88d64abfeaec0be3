// Package scheduler runs the delivery log retention job.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// EventPruned is published after every prune run that removed records.
const EventPruned = "alert.delivery_log.pruned"

const pruneTimeout = time.Minute

// EventPublisher allows the scheduler to emit events without depending on a
// concrete event bus implementation.
type EventPublisher interface {
	Publish(eventType string, payload map[string]string)
}

// Pruner deletes delivery records created before cutoff.
type Pruner interface {
	PruneDeliveries(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config holds the scheduler configuration.
type Config struct {
	Store Pruner
	// Retention is how long delivery records are kept.
	Retention time.Duration
	// Schedule is either a Go duration ("1h") or a five-field cron expression.
	Schedule string
	Logger   *slog.Logger
	// EventPublisher is optional.
	EventPublisher EventPublisher
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

// Scheduler periodically prunes the delivery log using gocron.
type Scheduler struct {
	cron   gocron.Scheduler
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	started bool
}

// New creates a new Scheduler. It does not run anything until Start.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Store == nil {
		return nil, errors.New("scheduler: store is required")
	}
	if cfg.Retention <= 0 {
		return nil, fmt.Errorf("scheduler: retention must be positive, got %s", cfg.Retention)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	return &Scheduler{cron: cron, cfg: cfg, logger: cfg.Logger}, nil
}

// Start schedules the prune job and starts gocron. The first run happens immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	def, err := jobDefinition(s.cfg.Schedule)
	if err != nil {
		return err
	}

	_, err = s.cron.NewJob(def,
		gocron.NewTask(func() {
			if _, err := s.PruneNow(ctx); err != nil {
				s.logger.Warn("delivery log prune failed", slog.String("error", err.Error()))
			}
		}),
		gocron.WithName("delivery-log-retention"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("scheduling prune job: %w", err)
	}

	s.cron.Start()
	s.started = true
	s.logger.Info("delivery log retention started",
		slog.String("schedule", s.cfg.Schedule),
		slog.Duration("retention", s.cfg.Retention),
	)
	return nil
}

// Stop shuts down the gocron scheduler and waits for a running prune to finish.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

// PruneNow deletes every record older than the retention window.
func (s *Scheduler) PruneNow(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pruneTimeout)
	defer cancel()

	cutoff := s.cfg.Now().UTC().Add(-s.cfg.Retention)
	removed, err := s.cfg.Store.PruneDeliveries(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.logger.Info("delivery log pruned",
			slog.Int64("removed", removed),
			slog.Time("cutoff", cutoff),
		)
		if s.cfg.EventPublisher != nil {
			s.cfg.EventPublisher.Publish(EventPruned, map[string]string{
				"removed": strconv.FormatInt(removed, 10),
				"cutoff":  cutoff.Format(time.RFC3339),
			})
		}
	}
	return removed, nil
}

// jobDefinition converts a schedule string into a gocron JobDefinition.
func jobDefinition(schedule string) (gocron.JobDefinition, error) {
	if schedule == "" {
		return nil, errors.New("scheduler: empty schedule")
	}
	if d, err := time.ParseDuration(schedule); err == nil {
		if d <= 0 {
			return nil, fmt.Errorf("scheduler: interval must be positive, got %s", d)
		}
		return gocron.DurationJob(d), nil
	}
	return gocron.CronJob(schedule, false), nil
}
