package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/trainingdesk/internal/storage"
)

// MockNotificationStore is a mock implementation of storage.NotificationStore.
type MockNotificationStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockNotificationStore) LogNotification(ctx context.Context, entry storage.NotificationLogEntry) (int64, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(int64), args.Error(1)
}

//nolint:revive
func (m *MockNotificationStore) MarkDelivery(ctx context.Context, id int64, status, errMsg string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationStore) ListNotifications(ctx context.Context, limit int) ([]storage.NotificationLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.NotificationLogEntry), args.Error(1)
}

//nolint:revive
func (m *MockNotificationStore) ListRetryable(ctx context.Context, maxAttempts int, staleBefore time.Time) ([]storage.NotificationLogEntry, error) {
	args := m.Called(ctx, maxAttempts, staleBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.NotificationLogEntry), args.Error(1)
}

//nolint:revive
func (m *MockNotificationStore) SaveRecord(ctx context.Context, rec storage.NotificationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationStore) ListRecords(ctx context.Context, userID int64, limit int) ([]storage.NotificationRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.NotificationRecord), args.Error(1)
}
