package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shaharia-lab/trainingdesk/internal/notification"
	"github.com/shaharia-lab/trainingdesk/internal/policy"
	"github.com/shaharia-lab/trainingdesk/internal/storage"
	"github.com/shaharia-lab/trainingdesk/internal/training"
)

// NotificationService exposes the outbox, the database channel and previews.
// Every call is made on behalf of actorID.
type NotificationService interface {
	// Preview composes the notification for event without delivering it.
	// Needs moderator rights in the training's area.
	Preview(ctx context.Context, actorID int64, event string, trainingID int64) (*notification.Notification, error)
	// Resend composes and delivers the notification for event again.
	// Needs moderator rights in the training's area.
	Resend(ctx context.Context, actorID int64, event string, trainingID int64) error
	// RetryFailed re-sends failed outbox entries once.
	RetryFailed(ctx context.Context, actorID int64, maxAttempts int) (retried, sent int, err error)
	// ListLog returns the most recent outbox entries.
	ListLog(ctx context.Context, actorID int64, limit int) ([]storage.NotificationLogEntry, error)
	// ListRecords returns a member's database-channel notifications.
	ListRecords(ctx context.Context, actorID, userID int64, limit int) ([]storage.NotificationRecord, error)
}

type notificationServiceImpl struct {
	repo       training.Repository
	composer   *notification.Composer
	dispatcher *notification.Dispatcher
	store      storage.NotificationStore
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	repo training.Repository,
	composer *notification.Composer,
	dispatcher *notification.Dispatcher,
	store storage.NotificationStore,
) NotificationService {
	return &notificationServiceImpl{
		repo:       repo,
		composer:   composer,
		dispatcher: dispatcher,
		store:      store,
	}
}

func (s *notificationServiceImpl) Preview(ctx context.Context, actorID int64, event string, trainingID int64) (*notification.Notification, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	actor, err := findActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.FindTraining(ctx, trainingID)
	if err != nil {
		return nil, mapNotFound(err, "training", trainingID)
	}
	if !policy.Update(actor, t) {
		return nil, &ForbiddenError{Action: fmt.Sprintf("view notifications of training %d", t.ID)}
	}
	return s.composer.Compose(ctx, event, t)
}

func (s *notificationServiceImpl) Resend(ctx context.Context, actorID int64, event string, trainingID int64) error {
	n, err := s.Preview(ctx, actorID, event, trainingID)
	if err != nil {
		return err
	}
	return s.dispatcher.Deliver(ctx, n)
}

func (s *notificationServiceImpl) RetryFailed(ctx context.Context, actorID int64, maxAttempts int) (int, int, error) {
	if maxAttempts <= 0 {
		return 0, 0, &ValidationError{Field: "max_attempts", Message: "must be positive"}
	}
	if err := s.requireOutbox(ctx, actorID, "retry notifications"); err != nil {
		return 0, 0, err
	}
	// Pending rows younger than a minute may still be mid-send.
	return s.dispatcher.RetryFailed(ctx, maxAttempts, time.Minute)
}

func (s *notificationServiceImpl) ListLog(ctx context.Context, actorID int64, limit int) ([]storage.NotificationLogEntry, error) {
	if err := s.requireOutbox(ctx, actorID, "read the notification log"); err != nil {
		return nil, err
	}
	entries, err := s.store.ListNotifications(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notification log: %w", err)
	}
	return entries, nil
}

func (s *notificationServiceImpl) ListRecords(ctx context.Context, actorID, userID int64, limit int) ([]storage.NotificationRecord, error) {
	actor, err := findActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if !policy.ViewMember(actor, userID) {
		return nil, &ForbiddenError{Action: "read notifications of another member"}
	}
	records, err := s.store.ListRecords(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications for user %d: %w", userID, err)
	}
	return records, nil
}

func (s *notificationServiceImpl) requireOutbox(ctx context.Context, actorID int64, action string) error {
	actor, err := findActor(ctx, s.repo, actorID)
	if err != nil {
		return err
	}
	if !policy.ManageOutbox(actor) {
		return &ForbiddenError{Action: action}
	}
	return nil
}

// findActor loads the user a call is made on behalf of.
func findActor(ctx context.Context, repo training.Repository, id int64) (*training.User, error) {
	u, err := repo.FindUser(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "user", id)
	}
	return u, nil
}

func validateEvent(event string) error {
	switch event {
	case training.EventCreated, training.EventPreTraining, training.EventAwaitingExam:
		return nil
	}
	return &ValidationError{
		Field: "event",
		Message: fmt.Sprintf("must be one of %s, %s, %s",
			training.EventCreated, training.EventPreTraining, training.EventAwaitingExam),
	}
}
