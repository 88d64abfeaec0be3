package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/alertmail/internal/service"
)

// MockAlertService is a mock implementation of service.AlertService.
type MockAlertService struct {
	mock.Mock
}

//nolint:revive
func (m *MockAlertService) SendAlert(ctx context.Context, req *service.SendRequest) (*service.SendResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SendResult), args.Error(1)
}
