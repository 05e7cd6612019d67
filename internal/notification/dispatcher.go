package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaharia-lab/trainingdesk/internal/metrics"
	"github.com/shaharia-lab/trainingdesk/internal/storage"
)

// Dispatcher delivers composed notifications on each of their channels.
// Mail goes through the notification_log outbox so failures can be retried.
type Dispatcher struct {
	provider Provider
	store    storage.NotificationStore
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher. m may be nil.
func NewDispatcher(provider Provider, store storage.NotificationStore, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		store:    store,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Deliver sends n on every channel it lists. A failure on one channel does
// not stop the others; all failures are returned joined.
func (d *Dispatcher) Deliver(ctx context.Context, n *Notification) error {
	var errs []error
	for _, ch := range n.Channels {
		var err error
		switch ch {
		case ChannelDatabase:
			err = d.deliverRecord(ctx, n)
		case ChannelMail:
			err = d.deliverMail(ctx, n)
		default:
			err = fmt.Errorf("unknown channel %q", ch)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s channel: %w", ch, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) deliverRecord(ctx context.Context, n *Notification) error {
	data, err := json.Marshal(n.Record)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	err = d.store.SaveRecord(ctx, storage.NotificationRecord{
		ID:        uuid.NewString(),
		UserID:    n.UserID,
		Type:      n.Event,
		Data:      string(data),
		CreatedAt: d.now().UTC(),
	})
	d.observe(n.Event, ChannelDatabase, err)
	return err
}

func (d *Dispatcher) deliverMail(ctx context.Context, n *Notification) error {
	payload, err := json.Marshal(n.Mail)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	id, err := d.store.LogNotification(ctx, storage.NotificationLogEntry{
		TrainingID: n.Mail.TrainingID,
		EventType:  n.Event,
		Provider:   d.provider.Name(),
		Subject:    n.Mail.Subject,
		Payload:    string(payload),
		Status:     storage.DeliveryPending,
		CreatedAt:  d.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("queueing message: %w", err)
	}
	return d.send(ctx, id, n.Mail)
}

// send makes one delivery attempt for the outbox entry id and records the outcome.
func (d *Dispatcher) send(ctx context.Context, id int64, msg Message) error {
	sendErr := d.provider.Send(ctx, msg)

	status, errMsg := storage.DeliverySent, ""
	if sendErr != nil {
		status, errMsg = storage.DeliveryFailed, sendErr.Error()
		d.logger.Warn("notification delivery failed",
			"event", msg.Event, "training_id", msg.TrainingID,
			"outbox_id", id, "provider", d.provider.Name(), "error", sendErr)
	} else {
		d.logger.Info("notification sent",
			"event", msg.Event, "training_id", msg.TrainingID,
			"outbox_id", id, "provider", d.provider.Name(), "bcc", len(msg.Bcc))
	}
	d.observe(msg.Event, ChannelMail, sendErr)

	if err := d.store.MarkDelivery(ctx, id, status, errMsg); err != nil {
		d.logger.Error("failed to record delivery outcome", "outbox_id", id, "error", err)
		if sendErr == nil {
			return err
		}
	}
	return sendErr
}

// RetryFailed re-sends outbox entries that failed, or that have been pending
// longer than staleAfter, and have fewer than maxAttempts attempts.
// It returns how many entries were retried and how many of those succeeded.
func (d *Dispatcher) RetryFailed(ctx context.Context, maxAttempts int, staleAfter time.Duration) (retried, sent int, err error) {
	entries, err := d.store.ListRetryable(ctx, maxAttempts, d.now().Add(-staleAfter))
	if err != nil {
		return 0, 0, fmt.Errorf("listing retryable notifications: %w", err)
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return retried, sent, ctx.Err()
		}
		var msg Message
		if err := json.Unmarshal([]byte(e.Payload), &msg); err != nil {
			d.logger.Error("dropping undecodable outbox entry", "outbox_id", e.ID, "error", err)
			_ = d.store.MarkDelivery(ctx, e.ID, storage.DeliveryFailed, "undecodable payload: "+err.Error())
			continue
		}
		retried++
		if d.send(ctx, e.ID, msg) == nil {
			sent++
		}
	}
	return retried, sent, nil
}

func (d *Dispatcher) observe(event string, ch Channel, err error) {
	status := storage.DeliverySent
	if err != nil {
		status = storage.DeliveryFailed
	}
	d.metrics.ObserveNotification(event, string(ch), status)
}
