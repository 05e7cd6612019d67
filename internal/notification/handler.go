package notification

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/shaharia-lab/trainingdesk/internal/eventbus"
	"github.com/shaharia-lab/trainingdesk/internal/training"
)

// NotificationHandler receives training lifecycle events from the bus,
// composes the matching notification and hands it to the Dispatcher.
//
//nolint:revive
type NotificationHandler struct {
	repo       training.Repository
	composer   *Composer
	dispatcher *Dispatcher
	logger     *slog.Logger
	timeout    time.Duration
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(repo training.Repository, composer *Composer, dispatcher *Dispatcher, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		repo:       repo,
		composer:   composer,
		dispatcher: dispatcher,
		logger:     logger,
		timeout:    30 * time.Second,
	}
}

// Handle is an eventbus.Listener. Events that carry no notification are ignored.
func (h *NotificationHandler) Handle(e eventbus.Event) {
	switch e.Type {
	case training.EventCreated, training.EventPreTraining, training.EventAwaitingExam:
	default:
		return
	}

	id, err := strconv.ParseInt(e.Payload[training.PayloadTrainingID], 10, 64)
	if err != nil {
		h.logger.Error("notification: event without a valid training id",
			"event", e.Type, "event_id", e.ID, "payload", e.Payload)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.Notify(ctx, e.Type, id); err != nil {
		h.logger.Error("notification: delivery incomplete",
			"event", e.Type, "event_id", e.ID, "training_id", id, "error", err)
	}
}

// Notify composes and delivers the notification for event about training id.
func (h *NotificationHandler) Notify(ctx context.Context, event string, id int64) error {
	t, err := h.repo.FindTraining(ctx, id)
	if err != nil {
		return err
	}
	n, err := h.composer.Compose(ctx, event, t)
	if err != nil {
		return err
	}
	return h.dispatcher.Deliver(ctx, n)
}
