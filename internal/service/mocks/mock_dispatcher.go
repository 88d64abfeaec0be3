package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/alertmail/internal/notification"
)

// MockDispatcher is a mock implementation of service.Dispatcher.
type MockDispatcher struct {
	mock.Mock
}

//nolint:revive
func (m *MockDispatcher) Backend() string {
	args := m.Called()
	return args.String(0)
}

//nolint:revive
func (m *MockDispatcher) Dispatch(ctx context.Context, alert *notification.Alert, from notification.Sender, recipients []string) []notification.Outcome {
	args := m.Called(ctx, alert, from, recipients)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]notification.Outcome)
}
