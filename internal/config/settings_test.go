package config_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/trainingdesk/internal/config"
	"github.com/shaharia-lab/trainingdesk/internal/config/mocks"
)

func TestSettingsManager_Defaults(t *testing.T) {
	store := new(mocks.MockSettingsStore)
	store.On("Load").Return(map[string]string{}, nil)

	m, err := config.NewSettingsManager(store)
	require.NoError(t, err)

	assert.True(t, m.GetBool(config.KeyTrainingEnabled))
	assert.Equal(t, "", m.GetString(config.KeyTrainingSubDivisions))
	assert.Equal(t, "", m.GetString("unknown"))
	assert.False(t, m.GetBool("unknown"))
	store.AssertExpectations(t)
}

func TestSettingsManager_StoredValuesOverrideDefaults(t *testing.T) {
	store := new(mocks.MockSettingsStore)
	store.On("Load").Return(map[string]string{
		config.KeyTrainingEnabled:      "false",
		config.KeyTrainingSubDivisions: "POR, SPA",
	}, nil)

	m, err := config.NewSettingsManager(store)
	require.NoError(t, err)
	assert.False(t, m.GetBool(config.KeyTrainingEnabled))
	assert.Equal(t, []string{"POR", "SPA"}, config.SplitList(m.GetString(config.KeyTrainingSubDivisions)))
}

func TestSettingsManager_LoadError(t *testing.T) {
	store := new(mocks.MockSettingsStore)
	store.On("Load").Return(nil, errors.New("disk gone"))

	_, err := config.NewSettingsManager(store)
	assert.Error(t, err)
}

func TestSettingsManager_Set(t *testing.T) {
	store := new(mocks.MockSettingsStore)
	store.On("Load").Return(map[string]string{}, nil)
	store.On("Save", config.KeyTrainingEnabled, "false").Return(nil)

	m, err := config.NewSettingsManager(store)
	require.NoError(t, err)

	require.NoError(t, m.Set(config.KeyTrainingEnabled, "false"))
	assert.False(t, m.GetBool(config.KeyTrainingEnabled))

	assert.ErrorIs(t, m.Set("colour", "blue"), config.ErrInvalidSetting)
	assert.ErrorIs(t, m.Set(config.KeyTrainingEnabled, "sometimes"), config.ErrInvalidSetting)
	store.AssertNumberOfCalls(t, "Save", 1)
}

func TestSettingsManager_SetStoreError(t *testing.T) {
	store := new(mocks.MockSettingsStore)
	store.On("Load").Return(map[string]string{}, nil)
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("read-only"))

	m, err := config.NewSettingsManager(store)
	require.NoError(t, err)

	err = m.Set(config.KeyTrainingSubDivisions, "POR")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, config.ErrInvalidSetting)
	assert.Equal(t, "", m.GetString(config.KeyTrainingSubDivisions))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, config.SplitList(""))
	assert.Nil(t, config.SplitList(" , ,"))
	assert.Equal(t, []string{"A", "B"}, config.SplitList("A,,B "))
}
