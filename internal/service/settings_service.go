package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shaharia-lab/trainingdesk/internal/config"
	"github.com/shaharia-lab/trainingdesk/internal/policy"
	"github.com/shaharia-lab/trainingdesk/internal/training"
)

// SettingsService reads and changes runtime settings on behalf of a user.
type SettingsService interface {
	// All returns every setting. Needs moderator rights.
	All(ctx context.Context, actorID int64) (map[string]string, error)
	// Set validates and persists one setting. Needs administrator rights.
	Set(ctx context.Context, actorID int64, key, value string) error
}

type settingsService struct {
	repo     training.Repository
	settings *config.SettingsManager
	logger   *slog.Logger
}

// NewSettingsService returns a SettingsService over mgr.
func NewSettingsService(repo training.Repository, mgr *config.SettingsManager, logger *slog.Logger) SettingsService {
	return &settingsService{repo: repo, settings: mgr, logger: logger}
}

func (s *settingsService) All(ctx context.Context, actorID int64) (map[string]string, error) {
	actor, err := findActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if !policy.ViewSettings(actor) {
		return nil, &ForbiddenError{Action: "view settings"}
	}
	return s.settings.All(), nil
}

func (s *settingsService) Set(ctx context.Context, actorID int64, key, value string) error {
	actor, err := findActor(ctx, s.repo, actorID)
	if err != nil {
		return err
	}
	if !policy.EditSettings(actor) {
		return &ForbiddenError{Action: "change settings"}
	}
	if err := s.settings.Set(key, value); err != nil {
		if errors.Is(err, config.ErrInvalidSetting) {
			return &ValidationError{Field: key, Message: err.Error()}
		}
		return err
	}
	s.logger.Info("setting changed", "key", key, "value", value, "actor_id", actorID)
	return nil
}
