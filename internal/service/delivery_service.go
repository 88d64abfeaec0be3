package service

import (
	"context"
	"fmt"

	"github.com/shaharia-lab/alertmail/internal/storage"
)

const (
	defaultDeliveryLimit = 50
	maxDeliveryLimit     = 500
)

// DeliveryQuery selects records from the delivery log.
type DeliveryQuery struct {
	Status  string
	Email   string
	BatchID string
	Limit   int
}

// DeliveryService defines the business logic for reading the delivery log.
type DeliveryService interface {
	// ListDeliveries returns the newest delivery records matching q.
	ListDeliveries(ctx context.Context, q DeliveryQuery) ([]storage.DeliveryRecord, error)
}

type deliveryService struct {
	store storage.DeliveryStore
}

// NewDeliveryService returns a DeliveryService reading from store.
func NewDeliveryService(store storage.DeliveryStore) DeliveryService {
	return &deliveryService{store: store}
}

func (s *deliveryService) ListDeliveries(ctx context.Context, q DeliveryQuery) ([]storage.DeliveryRecord, error) {
	switch q.Status {
	case "", storage.DeliveryStatusSent, storage.DeliveryStatusFailed:
	default:
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("must be %q or %q", storage.DeliveryStatusSent, storage.DeliveryStatusFailed)}
	}

	limit := q.Limit
	switch {
	case limit < 0:
		return nil, &ValidationError{Field: "limit", Message: "must not be negative"}
	case limit == 0:
		limit = defaultDeliveryLimit
	case limit > maxDeliveryLimit:
		limit = maxDeliveryLimit
	}

	records, err := s.store.ListDeliveries(ctx, storage.DeliveryFilter{
		Status:  q.Status,
		Email:   q.Email,
		BatchID: q.BatchID,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing deliveries: %w", err)
	}
	return records, nil
}
