package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSettingsService is a mock implementation of service.SettingsService.
type MockSettingsService struct {
	mock.Mock
}

//nolint:revive
func (m *MockSettingsService) All(ctx context.Context, actorID int64) (map[string]string, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

//nolint:revive
func (m *MockSettingsService) Set(ctx context.Context, actorID int64, key, value string) error {
	args := m.Called(ctx, actorID, key, value)
	return args.Error(0)
}
