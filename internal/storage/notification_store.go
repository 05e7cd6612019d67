package storage

import (
	"context"
	"time"
)

// Delivery states of a notification_log row.
const (
	DeliveryPending = "pending"
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
)

// NotificationLogEntry is one outgoing mail message and its delivery state.
// Payload holds the JSON-encoded message so failed deliveries can be retried.
type NotificationLogEntry struct {
	ID         int64     `json:"id"`
	TrainingID int64     `json:"training_id"`
	EventType  string    `json:"event_type"`
	Provider   string    `json:"provider"`
	Subject    string    `json:"subject"`
	Payload    string    `json:"payload"`
	Status     string    `json:"status"`
	Attempts   int       `json:"attempts"`
	ErrorMsg   string    `json:"error_msg"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NotificationRecord is an in-app notification kept for the member's history.
type NotificationRecord struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	Type      string     `json:"type"`
	Data      string     `json:"data"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// NotificationStore persists the mail outbox and the database channel.
type NotificationStore interface {
	// LogNotification records a new outgoing message and returns its id.
	LogNotification(ctx context.Context, entry NotificationLogEntry) (int64, error)
	// MarkDelivery records the outcome of one delivery attempt.
	MarkDelivery(ctx context.Context, id int64, status, errMsg string) error
	// ListNotifications returns the most recent log entries, up to limit.
	ListNotifications(ctx context.Context, limit int) ([]NotificationLogEntry, error)
	// ListRetryable returns failed entries, and pending entries untouched since
	// staleBefore, that have fewer than maxAttempts attempts.
	ListRetryable(ctx context.Context, maxAttempts int, staleBefore time.Time) ([]NotificationLogEntry, error)
	// SaveRecord stores a database-channel notification.
	SaveRecord(ctx context.Context, rec NotificationRecord) error
	// ListRecords returns a member's database-channel notifications, newest first.
	ListRecords(ctx context.Context, userID int64, limit int) ([]NotificationRecord, error)
}
