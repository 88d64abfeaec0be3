package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/alertmail/internal/service"
	"github.com/shaharia-lab/alertmail/internal/storage"
)

// MockDeliveryService is a mock implementation of service.DeliveryService.
type MockDeliveryService struct {
	mock.Mock
}

//nolint:revive
func (m *MockDeliveryService) ListDeliveries(ctx context.Context, q service.DeliveryQuery) ([]storage.DeliveryRecord, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.DeliveryRecord), args.Error(1)
}
