package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/trainingdesk/internal/logger"
)

func TestNewSystemLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var tee bytes.Buffer

	log, closer, err := logger.NewSystemLogger(dir, slog.LevelInfo, &tee)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("training created", "training_id", 7)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "system.log"))
	require.NoError(t, err)
	assert.Equal(t, string(data), tee.String())

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "training created", rec["msg"])
	assert.EqualValues(t, 7, rec["training_id"])
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, slog.LevelWarn)
	log.Info("quiet")
	assert.Empty(t, buf.String())
	log.Warn("loud")
	assert.Contains(t, buf.String(), `"msg":"loud"`)
}
