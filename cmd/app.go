package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shaharia-lab/trainingdesk/internal/build"
	"github.com/shaharia-lab/trainingdesk/internal/config"
	"github.com/shaharia-lab/trainingdesk/internal/eventbus"
	"github.com/shaharia-lab/trainingdesk/internal/logger"
	"github.com/shaharia-lab/trainingdesk/internal/metrics"
	"github.com/shaharia-lab/trainingdesk/internal/notification"
	"github.com/shaharia-lab/trainingdesk/internal/policy"
	"github.com/shaharia-lab/trainingdesk/internal/service"
	"github.com/shaharia-lab/trainingdesk/internal/storage"
)

type globalOptions struct {
	verbose bool
}

// app holds the wired components shared by the subcommands.
type app struct {
	cfg        *config.AppConfig
	db         *sql.DB
	logger     *slog.Logger
	logCloser  io.Closer
	trainings  *storage.SQLiteTrainingStore
	notifStore *storage.SQLiteNotificationStore
	settings   *config.SettingsManager
	metrics    *metrics.Metrics
	bus        eventbus.EventBus
	dispatcher *notification.Dispatcher
	handler    *notification.NotificationHandler

	trainingSvc     service.TrainingService
	notificationSvc service.NotificationService
	settingsSvc     service.SettingsService
}

// openApp opens the database, runs migrations and wires every component.
// Lifecycle events published during the command are delivered before Close returns.
func openApp(cfg *config.AppConfig, opts *globalOptions) (*app, error) {
	var extra []io.Writer
	if opts.verbose {
		extra = append(extra, os.Stderr)
	}
	sysLogger, logCloser, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel(), extra...)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	db, fresh, err := storage.NewSQLiteDB(cfg.DBPath())
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if fresh {
		sysLogger.Info("database created", "path", cfg.DBPath())
	}

	a := &app{
		cfg:        cfg,
		db:         db,
		logger:     sysLogger,
		logCloser:  logCloser,
		trainings:  storage.NewSQLiteTrainingStore(db),
		notifStore: storage.NewSQLiteNotificationStore(db),
		metrics:    metrics.New(),
	}

	a.settings, err = config.NewSettingsManager(storage.NewSQLiteSettingsStore(db))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	provider := notification.NewProvider(cfg.SMTP, cfg.Division.OwnerNameShort, sysLogger)
	composer := notification.NewComposer(a.trainings, cfg.Division)
	a.dispatcher = notification.NewDispatcher(provider, a.notifStore, a.metrics, sysLogger)
	a.handler = notification.NewNotificationHandler(a.trainings, composer, a.dispatcher, sysLogger)

	a.bus = eventbus.New(0, sysLogger)
	a.bus.Subscribe(a.handler.Handle)

	evaluator := policy.NewEvaluator(a.trainings, a.settings, cfg.Division)
	a.trainingSvc = service.NewTrainingService(a.trainings, evaluator, a.bus, a.metrics, sysLogger)
	a.notificationSvc = service.NewNotificationService(a.trainings, composer, a.dispatcher, a.notifStore)
	a.settingsSvc = service.NewSettingsService(a.trainings, a.settings, sysLogger)

	sysLogger.Debug("trainingdesk initialized",
		build.LogAttrs(),
		slog.String("data_dir", cfg.DataDir),
		slog.String("division_mode", cfg.Division.Mode),
		slog.String("mail_provider", provider.Name()),
	)
	return a, nil
}

// Close drains the event bus, then closes the database and the log file.
func (a *app) Close() {
	if a.bus != nil {
		a.bus.Close()
	}
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	if err := errors.Join(errs...); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
}
