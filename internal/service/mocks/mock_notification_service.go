package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/trainingdesk/internal/notification"
	"github.com/shaharia-lab/trainingdesk/internal/storage"
)

// MockNotificationService is a mock implementation of service.NotificationService.
type MockNotificationService struct {
	mock.Mock
}

//nolint:revive
func (m *MockNotificationService) Preview(ctx context.Context, actorID int64, event string, trainingID int64) (*notification.Notification, error) {
	args := m.Called(ctx, actorID, event, trainingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

//nolint:revive
func (m *MockNotificationService) Resend(ctx context.Context, actorID int64, event string, trainingID int64) error {
	args := m.Called(ctx, actorID, event, trainingID)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationService) RetryFailed(ctx context.Context, actorID int64, maxAttempts int) (int, int, error) {
	args := m.Called(ctx, actorID, maxAttempts)
	return args.Int(0), args.Int(1), args.Error(2)
}

//nolint:revive
func (m *MockNotificationService) ListLog(ctx context.Context, actorID int64, limit int) ([]storage.NotificationLogEntry, error) {
	args := m.Called(ctx, actorID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.NotificationLogEntry), args.Error(1)
}

//nolint:revive
func (m *MockNotificationService) ListRecords(ctx context.Context, actorID, userID int64, limit int) ([]storage.NotificationRecord, error) {
	args := m.Called(ctx, actorID, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.NotificationRecord), args.Error(1)
}
