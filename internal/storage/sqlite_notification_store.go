package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteNotificationStore implements NotificationStore backed by SQLite.
type SQLiteNotificationStore struct {
	db *sql.DB
}

// NewSQLiteNotificationStore returns a new SQLiteNotificationStore.
func NewSQLiteNotificationStore(db *sql.DB) *SQLiteNotificationStore {
	return &SQLiteNotificationStore{db: db}
}

const logColumns = `id, training_id, event_type, provider, subject, payload, status, attempts, error_msg, created_at, updated_at`

// LogNotification inserts an outbox row.
func (s *SQLiteNotificationStore) LogNotification(ctx context.Context, entry NotificationLogEntry) (int64, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}
	if entry.Status == "" {
		entry.Status = DeliveryPending
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_log
			(training_id, event_type, provider, subject, payload, status, attempts, error_msg, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.TrainingID, entry.EventType, entry.Provider, entry.Subject, entry.Payload,
		entry.Status, entry.Attempts, entry.ErrorMsg, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting notification log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading notification log id: %w", err)
	}
	return id, nil
}

// MarkDelivery stores the result of a delivery attempt and bumps the attempt counter.
func (s *SQLiteNotificationStore) MarkDelivery(ctx context.Context, id int64, status, errMsg string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notification_log
		SET status = ?, error_msg = ?, attempts = attempts + 1, updated_at = ?
		WHERE id = ?`, status, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating notification log %d: %w", id, err)
	}
	return expectOneRow(res, "notification log", id)
}

// ListNotifications returns the most recent log entries ordered by created_at descending.
func (s *SQLiteNotificationStore) ListNotifications(ctx context.Context, limit int) ([]NotificationLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryLog(ctx, `SELECT `+logColumns+` FROM notification_log
		ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

// ListRetryable returns entries that still need delivering, oldest first.
func (s *SQLiteNotificationStore) ListRetryable(ctx context.Context, maxAttempts int, staleBefore time.Time) ([]NotificationLogEntry, error) {
	return s.queryLog(ctx, `SELECT `+logColumns+` FROM notification_log
		WHERE attempts < ?
		  AND (status = ? OR (status = ? AND updated_at < ?))
		ORDER BY id`, maxAttempts, DeliveryFailed, DeliveryPending, staleBefore.UTC())
}

func (s *SQLiteNotificationStore) queryLog(ctx context.Context, query string, args ...any) ([]NotificationLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notification log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []NotificationLogEntry
	for rows.Next() {
		var e NotificationLogEntry
		if err := rows.Scan(&e.ID, &e.TrainingID, &e.EventType, &e.Provider, &e.Subject, &e.Payload,
			&e.Status, &e.Attempts, &e.ErrorMsg, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification log rows: %w", err)
	}
	return entries, nil
}

// SaveRecord stores a database-channel notification.
func (s *SQLiteNotificationStore) SaveRecord(ctx context.Context, rec NotificationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, data, created_at)
		VALUES (?, ?, ?, ?, ?)`, rec.ID, rec.UserID, rec.Type, rec.Data, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting notification record: %w", err)
	}
	return nil
}

// ListRecords returns a member's notifications, newest first.
func (s *SQLiteNotificationStore) ListRecords(ctx context.Context, userID int64, limit int) ([]NotificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, data, created_at, read_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notification records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []NotificationRecord
	for rows.Next() {
		var (
			r      NotificationRecord
			readAt sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Type, &r.Data, &r.CreatedAt, &readAt); err != nil {
			return nil, fmt.Errorf("scanning notification record: %w", err)
		}
		if readAt.Valid {
			t := readAt.Time
			r.ReadAt = &t
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification records: %w", err)
	}
	return out, nil
}
