package storage

import (
	"context"
	"time"
)

// Delivery statuses.
const (
	DeliveryStatusSent   = "sent"
	DeliveryStatusFailed = "failed"
)

// DeliveryRecord records the outcome of sending one alert to one recipient.
type DeliveryRecord struct {
	ID         int64     `json:"id"`
	BatchID    string    `json:"batch_id"`
	Backend    string    `json:"backend"`
	Email      string    `json:"email"`
	Status     string    `json:"status"`
	MessageID  string    `json:"message_id,omitempty"`
	ErrorMsg   string    `json:"error,omitempty"`
	ErrorCode  string    `json:"code,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// DeliveryFilter narrows ListDeliveries. Zero values match everything.
type DeliveryFilter struct {
	Status  string
	Email   string
	BatchID string
	Limit   int
}

// DeliveryStore defines the interface for persisting delivery outcomes.
type DeliveryStore interface {
	// RecordDelivery stores a single delivery outcome.
	RecordDelivery(ctx context.Context, rec DeliveryRecord) error
	// ListDeliveries returns the most recent records matching filter, newest first.
	ListDeliveries(ctx context.Context, filter DeliveryFilter) ([]DeliveryRecord, error)
	// PruneDeliveries deletes records created before cutoff and returns how many were removed.
	PruneDeliveries(ctx context.Context, cutoff time.Time) (int64, error)
}
