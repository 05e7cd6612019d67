// Package scheduler runs background jobs with gocron. Its only job today
// re-sends notification_log entries whose mail delivery failed.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// Retrier re-sends failed outbox entries. notification.Dispatcher implements it.
type Retrier interface {
	RetryFailed(ctx context.Context, maxAttempts int, staleAfter time.Duration) (retried, sent int, err error)
}

// Config holds the scheduler configuration.
type Config struct {
	Retrier Retrier
	Logger  *slog.Logger
	// Interval between outbox sweeps. Defaults to five minutes.
	Interval time.Duration
	// MaxAttempts caps delivery attempts per entry. Defaults to 5.
	MaxAttempts int
	// StaleAfter is how long an entry may stay pending before it is
	// considered abandoned and retried. Defaults to Interval.
	StaleAfter time.Duration
	// RunTimeout bounds one sweep. Defaults to one minute.
	RunTimeout time.Duration
}

// Scheduler manages background job execution using gocron.
type Scheduler struct {
	cron   gocron.Scheduler
	cfg    Config
	jobID  uuid.UUID
	mu     sync.Mutex
	logger *slog.Logger
}

// New creates a new Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Retrier == nil {
		return nil, fmt.Errorf("scheduler: retrier is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = cfg.Interval
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = time.Minute
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	return &Scheduler{cron: cron, cfg: cfg, logger: cfg.Logger}, nil
}

// Start schedules the outbox retry job and starts the gocron scheduler.
func (s *Scheduler) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.cron.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(s.retryOutbox),
		gocron.WithName("outbox-retry"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("scheduling outbox retry: %w", err)
	}
	s.jobID = job.ID()

	s.cron.Start()
	s.logger.Info("scheduler started",
		"job", "outbox-retry", "job_id", s.jobID,
		"interval", s.cfg.Interval, "max_attempts", s.cfg.MaxAttempts)
	return nil
}

// Stop shuts down the gocron scheduler, waiting for a running sweep.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

// RunOnce performs one outbox sweep synchronously.
func (s *Scheduler) RunOnce(ctx context.Context) (retried, sent int, err error) {
	return s.cfg.Retrier.RetryFailed(ctx, s.cfg.MaxAttempts, s.cfg.StaleAfter)
}

func (s *Scheduler) retryOutbox() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	defer cancel()

	retried, sent, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("outbox retry failed", "error", err)
		return
	}
	if retried > 0 {
		s.logger.Info("outbox retry completed", "retried", retried, "sent", sent)
	}
}
