package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const defaultListLimit = 50

// SQLiteDeliveryStore implements DeliveryStore backed by SQLite.
type SQLiteDeliveryStore struct {
	db *sql.DB
}

// NewSQLiteDeliveryStore returns a new SQLiteDeliveryStore.
func NewSQLiteDeliveryStore(db *sql.DB) *SQLiteDeliveryStore {
	return &SQLiteDeliveryStore{db: db}
}

// RecordDelivery inserts a delivery record into the database.
func (s *SQLiteDeliveryStore) RecordDelivery(ctx context.Context, rec DeliveryRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO delivery_log (batch_id, backend, email, status, message_id, error_msg, error_code, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BatchID, rec.Backend, rec.Email, rec.Status,
		rec.MessageID, rec.ErrorMsg, rec.ErrorCode, rec.DurationMS, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting delivery record: %w", err)
	}
	return nil
}

// ListDeliveries returns matching records ordered by created_at descending.
func (s *SQLiteDeliveryStore) ListDeliveries(ctx context.Context, filter DeliveryFilter) ([]DeliveryRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Email != "" {
		where = append(where, "email = ?")
		args = append(args, filter.Email)
	}
	if filter.BatchID != "" {
		where = append(where, "batch_id = ?")
		args = append(args, filter.BatchID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, batch_id, backend, email, status, message_id, error_msg, error_code, duration_ms, created_at
		FROM delivery_log`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY created_at DESC, id DESC\n\t\tLIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying delivery log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]DeliveryRecord, 0)
	for rows.Next() {
		var r DeliveryRecord
		if err := rows.Scan(&r.ID, &r.BatchID, &r.Backend, &r.Email, &r.Status,
			&r.MessageID, &r.ErrorMsg, &r.ErrorCode, &r.DurationMS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning delivery log row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating delivery log rows: %w", err)
	}
	return records, nil
}

// PruneDeliveries removes records older than cutoff.
func (s *SQLiteDeliveryStore) PruneDeliveries(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM delivery_log WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning delivery log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return n, nil
}
