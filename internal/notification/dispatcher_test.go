package notification_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/trainingdesk/internal/metrics"
	"github.com/shaharia-lab/trainingdesk/internal/notification"
	"github.com/shaharia-lab/trainingdesk/internal/storage"
	storemocks "github.com/shaharia-lab/trainingdesk/internal/storage/mocks"
	"github.com/shaharia-lab/trainingdesk/internal/training"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- stub provider ---

type stubProvider struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Send(_ context.Context, msg notification.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	return nil
}

func newNotificationStore(t *testing.T) *storage.SQLiteNotificationStore {
	t.Helper()
	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewSQLiteNotificationStore(db)
}

func sampleNotification() *notification.Notification {
	return &notification.Notification{
		Event:    training.EventPreTraining,
		UserID:   1001,
		Channels: []notification.Channel{notification.ChannelMail, notification.ChannelDatabase},
		Mail: notification.Message{
			Event:      training.EventPreTraining,
			TrainingID: 7,
			Subject:    "Training Assigned",
			Lines:      []string{"one", "two"},
			To:         notification.Recipient{Address: "ana@example.org", Name: "Ana"},
		},
		Record: notification.Record{TrainingID: 7},
	}
}

func TestDispatcher_DeliverSuccess(t *testing.T) {
	store := newNotificationStore(t)
	provider := &stubProvider{}
	d := notification.NewDispatcher(provider, store, metrics.New(), newTestLogger())
	ctx := context.Background()

	require.NoError(t, d.Deliver(ctx, sampleNotification()))

	require.Len(t, provider.sent, 1)
	assert.Equal(t, "Training Assigned", provider.sent[0].Subject)

	entries, err := store.ListNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, storage.DeliverySent, entries[0].Status)
	assert.Equal(t, 1, entries[0].Attempts)
	assert.Equal(t, "stub", entries[0].Provider)
	assert.Equal(t, int64(7), entries[0].TrainingID)

	var payload notification.Message
	require.NoError(t, json.Unmarshal([]byte(entries[0].Payload), &payload))
	assert.Equal(t, []string{"one", "two"}, payload.Lines)

	records, err := store.ListRecords(ctx, 1001, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, training.EventPreTraining, records[0].Type)
	assert.JSONEq(t, `{"training_id":7}`, records[0].Data)
	assert.Len(t, records[0].ID, 36)
}

func TestDispatcher_MailFailureStillWritesRecord(t *testing.T) {
	store := newNotificationStore(t)
	provider := &stubProvider{err: errors.New("connection refused")}
	d := notification.NewDispatcher(provider, store, nil, newTestLogger())
	ctx := context.Background()

	err := d.Deliver(ctx, sampleNotification())
	require.Error(t, err)
	assert.ErrorContains(t, err, "mail channel")
	assert.ErrorContains(t, err, "connection refused")

	entries, err := store.ListNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, storage.DeliveryFailed, entries[0].Status)
	assert.Equal(t, "connection refused", entries[0].ErrorMsg)

	records, err := store.ListRecords(ctx, 1001, 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestDispatcher_RetryFailed(t *testing.T) {
	store := newNotificationStore(t)
	provider := &stubProvider{err: errors.New("temporary")}
	d := notification.NewDispatcher(provider, store, nil, newTestLogger())
	ctx := context.Background()

	n := sampleNotification()
	n.Channels = []notification.Channel{notification.ChannelMail}
	require.Error(t, d.Deliver(ctx, n))

	retried, sent, err := d.RetryFailed(ctx, 5, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, retried)
	assert.Equal(t, 0, sent)

	provider.err = nil
	retried, sent, err = d.RetryFailed(ctx, 5, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, retried)
	assert.Equal(t, 1, sent)
	require.Len(t, provider.sent, 1)
	assert.Equal(t, "Training Assigned", provider.sent[0].Subject)

	entries, err := store.ListNotifications(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, storage.DeliverySent, entries[0].Status)
	assert.Equal(t, 3, entries[0].Attempts)

	retried, _, err = d.RetryFailed(ctx, 5, time.Minute)
	require.NoError(t, err)
	assert.Zero(t, retried)
}

func TestDispatcher_RetryRespectsMaxAttempts(t *testing.T) {
	store := newNotificationStore(t)
	provider := &stubProvider{err: errors.New("down")}
	d := notification.NewDispatcher(provider, store, nil, newTestLogger())
	ctx := context.Background()

	n := sampleNotification()
	n.Channels = []notification.Channel{notification.ChannelMail}
	require.Error(t, d.Deliver(ctx, n))

	retried, _, err := d.RetryFailed(ctx, 2, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, retried)

	retried, _, err = d.RetryFailed(ctx, 2, time.Minute)
	require.NoError(t, err)
	assert.Zero(t, retried, "two attempts used up")
}

func TestDispatcher_StoreFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("outbox unavailable skips the send", func(t *testing.T) {
		store := &storemocks.MockNotificationStore{}
		store.On("LogNotification", mock.Anything, mock.Anything).Return(int64(0), errors.New("disk full"))
		store.On("SaveRecord", mock.Anything, mock.MatchedBy(func(r storage.NotificationRecord) bool {
			return r.UserID == 1001 && r.Type == training.EventPreTraining
		})).Return(nil)
		provider := &stubProvider{}
		d := notification.NewDispatcher(provider, store, nil, newTestLogger())

		err := d.Deliver(ctx, sampleNotification())
		require.Error(t, err)
		assert.ErrorContains(t, err, "queueing message")
		assert.Empty(t, provider.sent)
		store.AssertExpectations(t)
	})

	t.Run("outcome not recorded after a successful send", func(t *testing.T) {
		store := &storemocks.MockNotificationStore{}
		store.On("LogNotification", mock.Anything, mock.Anything).Return(int64(3), nil)
		store.On("MarkDelivery", mock.Anything, int64(3), storage.DeliverySent, "").Return(errors.New("locked"))
		provider := &stubProvider{}
		d := notification.NewDispatcher(provider, store, nil, newTestLogger())

		n := sampleNotification()
		n.Channels = []notification.Channel{notification.ChannelMail}
		err := d.Deliver(ctx, n)
		assert.ErrorContains(t, err, "locked")
		assert.Len(t, provider.sent, 1)
		store.AssertExpectations(t)
	})

	t.Run("undecodable outbox entry is marked failed", func(t *testing.T) {
		store := &storemocks.MockNotificationStore{}
		store.On("ListRetryable", mock.Anything, 5, mock.Anything).
			Return([]storage.NotificationLogEntry{{ID: 9, Payload: "{not json"}}, nil)
		store.On("MarkDelivery", mock.Anything, int64(9), storage.DeliveryFailed, mock.Anything).Return(nil)
		provider := &stubProvider{}
		d := notification.NewDispatcher(provider, store, nil, newTestLogger())

		retried, sent, err := d.RetryFailed(ctx, 5, time.Minute)
		require.NoError(t, err)
		assert.Zero(t, retried)
		assert.Zero(t, sent)
		assert.Empty(t, provider.sent)
		store.AssertExpectations(t)
	})

	t.Run("listing fails", func(t *testing.T) {
		store := &storemocks.MockNotificationStore{}
		store.On("ListRetryable", mock.Anything, 5, mock.Anything).Return(nil, errors.New("closed"))
		d := notification.NewDispatcher(&stubProvider{}, store, nil, newTestLogger())

		_, _, err := d.RetryFailed(ctx, 5, time.Minute)
		assert.ErrorContains(t, err, "listing retryable notifications")
	})
}
