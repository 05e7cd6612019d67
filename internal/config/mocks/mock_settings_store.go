package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockSettingsStore is a mock implementation of config.SettingsStore.
type MockSettingsStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockSettingsStore) Load() (map[string]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

//nolint:revive
func (m *MockSettingsStore) Save(key, value string) error {
	args := m.Called(key, value)
	return args.Error(0)
}
