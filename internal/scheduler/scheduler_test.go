package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/alertmail/internal/scheduler"
	storemocks "github.com/shaharia-lab/alertmail/internal/storage/mocks"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []map[string]string
}

func (p *recordingPublisher) Publish(eventType string, payload map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if eventType == scheduler.EventPruned {
		p.events = append(p.events, payload)
	}
}

func TestNew_Validation(t *testing.T) {
	store := new(storemocks.MockDeliveryStore)

	tests := []struct {
		name string
		cfg  scheduler.Config
	}{
		{"missing store", scheduler.Config{Retention: time.Hour, Schedule: "1h"}},
		{"zero retention", scheduler.Config{Store: store, Schedule: "1h"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scheduler.New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestPruneNow(t *testing.T) {
	now := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	store := new(storemocks.MockDeliveryStore)
	store.On("PruneDeliveries", mock.Anything, now.Add(-720*time.Hour)).Return(int64(4), nil).Once()
	pub := &recordingPublisher{}

	s, err := scheduler.New(scheduler.Config{
		Store:          store,
		Retention:      720 * time.Hour,
		Schedule:       "24h",
		Logger:         newTestLogger(),
		EventPublisher: pub,
		Now:            func() time.Time { return now },
	})
	require.NoError(t, err)

	removed, err := s.PruneNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
	store.AssertExpectations(t)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "4", pub.events[0]["removed"])
	assert.Equal(t, "2026-05-31T00:00:00Z", pub.events[0]["cutoff"])
}

func TestPruneNow_NothingRemovedPublishesNothing(t *testing.T) {
	store := new(storemocks.MockDeliveryStore)
	store.On("PruneDeliveries", mock.Anything, mock.Anything).Return(int64(0), nil)
	pub := &recordingPublisher{}

	s, err := scheduler.New(scheduler.Config{Store: store, Retention: time.Hour, Schedule: "1h", EventPublisher: pub})
	require.NoError(t, err)

	_, err = s.PruneNow(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pub.events)
}

func TestPruneNow_StoreError(t *testing.T) {
	store := new(storemocks.MockDeliveryStore)
	store.On("PruneDeliveries", mock.Anything, mock.Anything).Return(int64(0), errors.New("database is locked"))

	s, err := scheduler.New(scheduler.Config{Store: store, Retention: time.Hour, Schedule: "1h", Logger: newTestLogger()})
	require.NoError(t, err)

	_, err = s.PruneNow(context.Background())
	assert.EqualError(t, err, "database is locked")
}

func TestStart_RunsImmediately(t *testing.T) {
	ran := make(chan struct{}, 1)
	store := new(storemocks.MockDeliveryStore)
	store.On("PruneDeliveries", mock.Anything, mock.Anything).Return(int64(0), nil).Run(func(mock.Arguments) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})

	s, err := scheduler.New(scheduler.Config{Store: store, Retention: time.Hour, Schedule: "1h", Logger: newTestLogger()})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("prune job did not run on start")
	}
}

func TestStart_Schedules(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"duration", "30m", false},
		{"cron", "0 3 * * *", false},
		{"negative duration", "-1h", true},
		{"empty", "", true},
		{"invalid cron", "not a schedule", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(storemocks.MockDeliveryStore)
			store.On("PruneDeliveries", mock.Anything, mock.Anything).Return(int64(0), nil).Maybe()

			s, err := scheduler.New(scheduler.Config{Store: store, Retention: time.Hour, Schedule: tt.schedule, Logger: newTestLogger()})
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Stop() })

			err = s.Start(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
