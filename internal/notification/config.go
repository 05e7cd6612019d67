package notification

import (
	"context"
	"log/slog"

	"github.com/shaharia-lab/trainingdesk/internal/config"
)

// NewProvider returns an SMTP provider when a host is configured and a
// LogProvider otherwise.
func NewProvider(cfg config.SMTP, division string, logger *slog.Logger) Provider {
	if cfg.Host == "" {
		return NewLogProvider(logger)
	}
	return NewSMTPProvider(cfg, division)
}

// LogProvider writes messages to the system log instead of sending them.
// It is used when no SMTP server is configured.
type LogProvider struct {
	logger *slog.Logger
}

// NewLogProvider creates a LogProvider.
func NewLogProvider(logger *slog.Logger) *LogProvider {
	return &LogProvider{logger: logger}
}

// Name returns the provider identifier.
func (p *LogProvider) Name() string { return "log" }

// Send logs msg.
func (p *LogProvider) Send(_ context.Context, msg Message) error {
	p.logger.Info("mail not sent: no SMTP host configured",
		"event", msg.Event,
		"training_id", msg.TrainingID,
		"to", msg.To.Address,
		"bcc", len(msg.Bcc),
		"subject", msg.Subject,
	)
	return nil
}
