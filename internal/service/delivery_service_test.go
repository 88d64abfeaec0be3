package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/alertmail/internal/service"
	"github.com/shaharia-lab/alertmail/internal/storage"
	storemocks "github.com/shaharia-lab/alertmail/internal/storage/mocks"
)

func TestDeliveryService_ListDeliveries(t *testing.T) {
	tests := []struct {
		name      string
		query     service.DeliveryQuery
		wantLimit int
	}{
		{"default limit", service.DeliveryQuery{}, 50},
		{"explicit limit", service.DeliveryQuery{Limit: 10}, 10},
		{"limit capped", service.DeliveryQuery{Limit: 10000}, 500},
		{"status filter", service.DeliveryQuery{Status: "failed", Email: "a@example.com"}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(storemocks.MockDeliveryStore)
			want := []storage.DeliveryRecord{{ID: 1, Email: "a@example.com"}}
			store.On("ListDeliveries", mock.Anything, storage.DeliveryFilter{
				Status:  tt.query.Status,
				Email:   tt.query.Email,
				BatchID: tt.query.BatchID,
				Limit:   tt.wantLimit,
			}).Return(want, nil)

			got, err := service.NewDeliveryService(store).ListDeliveries(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			store.AssertExpectations(t)
		})
	}
}

func TestDeliveryService_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		query     service.DeliveryQuery
		wantField string
	}{
		{"unknown status", service.DeliveryQuery{Status: "bounced"}, "status"},
		{"negative limit", service.DeliveryQuery{Limit: -1}, "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(storemocks.MockDeliveryStore)

			_, err := service.NewDeliveryService(store).ListDeliveries(context.Background(), tt.query)

			var ve *service.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
			store.AssertNotCalled(t, "ListDeliveries", mock.Anything, mock.Anything)
		})
	}
}

func TestDeliveryService_StoreError(t *testing.T) {
	store := new(storemocks.MockDeliveryStore)
	store.On("ListDeliveries", mock.Anything, mock.Anything).Return(nil, errors.New("database is locked"))

	_, err := service.NewDeliveryService(store).ListDeliveries(context.Background(), service.DeliveryQuery{})
	assert.ErrorContains(t, err, "listing deliveries: database is locked")
}
