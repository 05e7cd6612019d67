package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Division membership modes.
const (
	ModeDivision    = "division"
	ModeSubdivision = "subdivision"
)

// Exam scheduling variants.
const (
	ExamByMentor   = "mentor"
	ExamByExaminer = "examiner"
)

// Division is the static configuration of the division that owns the training program.
type Division struct {
	// Mode is "subdivision" or "division".
	Mode string `envconfig:"DIVISION_MODE" default:"division"`
	// OwnerCode is the network division code members must belong to.
	OwnerCode string `envconfig:"DIVISION_OWNER_CODE"`
	// OwnerNameShort is the short display name used in messages.
	OwnerNameShort string `envconfig:"DIVISION_OWNER_NAME_SHORT"`
	// ExamScheduling selects who schedules exams: "mentor" or "examiner".
	ExamScheduling string `envconfig:"EXAM_SCHEDULING" default:"mentor"`
}

// SMTP holds outgoing mail parameters.
type SMTP struct {
	Host       string `envconfig:"SMTP_HOST"`
	Port       int    `envconfig:"SMTP_PORT" default:"587"`
	Username   string `envconfig:"SMTP_USERNAME"`
	Password   string `envconfig:"SMTP_PASSWORD"`
	FromAddr   string `envconfig:"SMTP_FROM"`
	Encryption string `envconfig:"SMTP_ENCRYPTION" default:"starttls"` // "none", "starttls", "ssl_tls"
}

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// DataDir is the root data directory. Defaults to ~/.trainingdesk.
	DataDir string `envconfig:"TRAININGDESK_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// MetricsPort is the port "serve" exposes /health and /metrics on.
	MetricsPort int `envconfig:"METRICS_PORT" default:"9464"`

	// OutboxRetryMinutes is how often failed mail is retried by "serve".
	OutboxRetryMinutes int `envconfig:"OUTBOX_RETRY_MINUTES" default:"5"`

	// OutboxMaxAttempts caps delivery attempts per message.
	OutboxMaxAttempts int `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"5"`

	Division Division
	SMTP     SMTP
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.trainingdesk if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".trainingdesk")
	}
	if err := c.Division.validate(); err != nil {
		return nil, err
	}
	if c.Division.OwnerNameShort == "" {
		c.Division.OwnerNameShort = c.Division.OwnerCode
	}
	return &c, nil
}

func (d Division) validate() error {
	switch d.Mode {
	case ModeDivision, ModeSubdivision:
	default:
		return fmt.Errorf("invalid DIVISION_MODE %q: want %q or %q", d.Mode, ModeDivision, ModeSubdivision)
	}
	switch d.ExamScheduling {
	case ExamByMentor, ExamByExaminer:
	default:
		return fmt.Errorf("invalid EXAM_SCHEDULING %q: want %q or %q", d.ExamScheduling, ExamByMentor, ExamByExaminer)
	}
	return nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory (~/.trainingdesk/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBPath returns the path to the SQLite database file.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "trainingdesk.db")
}
