package config

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
)

// Runtime setting keys.
const (
	KeyTrainingEnabled      = "trainingEnabled"
	KeyTrainingSubDivisions = "trainingSubDivisions"
)

// defaults apply when a key has never been saved.
var defaults = map[string]string{
	KeyTrainingEnabled:      "true",
	KeyTrainingSubDivisions: "",
}

// ErrInvalidSetting is wrapped by Set for unknown keys and malformed values.
var ErrInvalidSetting = errors.New("invalid setting")

// SettingsStore defines the interface for persisting runtime settings.
type SettingsStore interface {
	Load() (map[string]string, error)
	Save(key, value string) error
}

// SettingsManager caches runtime settings loaded from a SettingsStore.
type SettingsManager struct {
	store    SettingsStore
	mu       sync.RWMutex
	settings map[string]string
}

// NewSettingsManager creates a SettingsManager and loads the current values.
func NewSettingsManager(store SettingsStore) (*SettingsManager, error) {
	m := &SettingsManager{store: store}
	if err := m.Reload(); err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return m, nil
}

// Reload re-reads every setting from the store.
func (m *SettingsManager) Reload() error {
	stored, err := m.store.Load()
	if err != nil {
		return err
	}
	merged := make(map[string]string, len(defaults)+len(stored))
	maps.Copy(merged, defaults)
	maps.Copy(merged, stored)

	m.mu.Lock()
	m.settings = merged
	m.mu.Unlock()
	return nil
}

// GetString returns the raw value for key, or "" when unknown.
func (m *SettingsManager) GetString(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key]
}

// GetBool interprets the value for key as a boolean. Unparseable values are false.
func (m *SettingsManager) GetBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(m.GetString(key)))
	if err != nil {
		return false
	}
	return v
}

// All returns a copy of every known setting.
func (m *SettingsManager) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.settings))
	maps.Copy(out, m.settings)
	return out
}

// Set validates and persists a single setting.
func (m *SettingsManager) Set(key, value string) error {
	if _, ok := defaults[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", ErrInvalidSetting, key)
	}
	if key == KeyTrainingEnabled {
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: %s must be a boolean", ErrInvalidSetting, key)
		}
	}
	if err := m.store.Save(key, value); err != nil {
		return fmt.Errorf("persisting setting %q: %w", key, err)
	}

	m.mu.Lock()
	m.settings[key] = value
	m.mu.Unlock()
	return nil
}

// SplitList splits a comma-separated setting, trimming entries and dropping empty ones.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
