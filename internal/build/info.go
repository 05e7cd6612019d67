// Package build carries version metadata stamped in via -ldflags:
//
//	-X github.com/shaharia-lab/trainingdesk/internal/build.Version=v1.2.0
package build

import (
	"fmt"
	"log/slog"
)

var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// String returns a single human-readable build info string.
func String() string {
	return fmt.Sprintf("trainingdesk %s (commit %s, built %s)", Version, CommitSHA, BuildDate)
}

// LogAttrs returns the build metadata as a slog group for startup logging.
func LogAttrs() slog.Attr {
	return slog.Group("build",
		slog.String("version", Version),
		slog.String("commit", CommitSHA),
		slog.String("date", BuildDate),
	)
}
