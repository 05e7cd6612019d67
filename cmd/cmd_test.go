package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/trainingdesk/cmd"
	"github.com/shaharia-lab/trainingdesk/internal/config"
)

const seedYAML = `
ratings:
  - {id: 3, name: S2}
  - {id: 9, name: LPPT_APP}
areas:
  - id: 1
    name: Lisbon FIR
    contact: training@example.org
users:
  - {id: 1001, name: Ana Silva, email: ana@example.org, division: EUD, rating: 3, atc_active: true}
  - id: 2001
    name: Mod One
    email: mod@example.org
    division: EUD
    notify_newreq: true
    permissions: [{group: 2, area: 1}]
  - id: 2003
    name: Admin One
    email: admin@example.org
    division: EUD
    permissions: [{group: 1, area: 1}]
`

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	return &config.AppConfig{
		DataDir:            t.TempDir(),
		LogLevel:           "error",
		OutboxRetryMinutes: 5,
		OutboxMaxAttempts:  5,
		Division: config.Division{
			Mode:           config.ModeDivision,
			OwnerCode:      "EUD",
			OwnerNameShort: "Europe",
			ExamScheduling: config.ExamByMentor,
		},
	}
}

func run(t *testing.T, cfg *config.AppConfig, args ...string) (string, error) {
	t.Helper()
	root := cmd.NewRootCmd(cfg)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, cfg *config.AppConfig, args ...string) string {
	t.Helper()
	out, err := run(t, cfg, args...)
	require.NoError(t, err, out)
	return out
}

func writeSeed(t *testing.T) string {
	t.Helper()
	seedFile := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte(seedYAML), 0o600))
	return seedFile
}

func TestTrainingLifecycle(t *testing.T) {
	cfg := testConfig(t)
	seedFile := writeSeed(t)

	assert.Contains(t, mustRun(t, cfg, "migrate"), "Database ready")
	assert.Equal(t, "Seeded 2 ratings, 1 areas, 3 users\n", mustRun(t, cfg, "seed", seedFile))

	assert.Equal(t, "allowed\n", mustRun(t, cfg, "can-apply", "--user", "1001"))

	out := mustRun(t, cfg, "apply", "--user", "1001", "--area", "1", "--rating", "3")
	assert.Equal(t, "Training 1: S2 in Lisbon FIR, status in_queue\n", out)

	out = mustRun(t, cfg, "transition", "--actor", "2001", "--training", "1", "--to", "pre_training")
	assert.Contains(t, out, "status pre_training")

	out = mustRun(t, cfg, "toggle-pretraining", "--actor", "1001", "--training", "1")
	assert.Contains(t, out, "(pre-training completed)")

	log := mustRun(t, cfg, "notifications", "log", "--actor", "2001")
	assert.Contains(t, log, "training.created")
	assert.Contains(t, log, "training.pre_training")
	assert.Equal(t, 2, strings.Count(log, ",sent,"))

	list := mustRun(t, cfg, "notifications", "list", "--user", "1001")
	assert.Contains(t, list, `training_id`)
	list = mustRun(t, cfg, "notifications", "list", "--user", "1001", "--actor", "2001")
	assert.Contains(t, list, `training_id`)

	preview := mustRun(t, cfg, "preview", "--actor", "2001", "--training", "1", "--event", "created")
	assert.Contains(t, preview, "To: Ana Silva <ana@example.org>")
	assert.Contains(t, preview, "Bcc: mod@example.org")
	assert.Contains(t, preview, "Reply-To: training@example.org")
	assert.Contains(t, preview, "Subject: New Training Request Confirmation")

	_, err := run(t, cfg, "preview", "--actor", "1001", "--training", "1", "--event", "created")
	assert.ErrorContains(t, err, "not allowed to view notifications of training 1")
	_, err = run(t, cfg, "notifications", "log", "--actor", "1001")
	assert.ErrorContains(t, err, "not allowed to read the notification log")
	_, err = run(t, cfg, "notifications", "list", "--user", "2001", "--actor", "1001")
	assert.Error(t, err)

	_, err = run(t, cfg, "close", "--actor", "1001", "--training", "1")
	assert.ErrorContains(t, err, "not allowed to close training")

	_, err = run(t, cfg, "transition", "--actor", "2001", "--training", "1", "--to", "nowhere")
	assert.ErrorContains(t, err, `unknown status "nowhere"`)
}

func TestSettingsCommands(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "seed", writeSeed(t))

	assert.Equal(t, "true\n", mustRun(t, cfg, "settings", "get", "--actor", "2003", "trainingEnabled"))
	assert.Equal(t, "trainingEnabled = false\n", mustRun(t, cfg, "settings", "set", "--actor", "2003", "trainingEnabled", "false"))

	_, err := run(t, cfg, "settings", "set", "--actor", "2003", "trainingEnabled", "maybe")
	assert.Error(t, err)
	_, err = run(t, cfg, "settings", "get", "--actor", "2003", "nope")
	assert.Error(t, err)

	_, err = run(t, cfg, "settings", "set", "--actor", "2001", "trainingEnabled", "true")
	assert.ErrorContains(t, err, "not allowed to change settings")
	_, err = run(t, cfg, "settings", "get", "--actor", "1001")
	assert.ErrorContains(t, err, "not allowed")
	_, err = run(t, cfg, "settings", "get")
	assert.ErrorContains(t, err, `required flag(s) "actor" not set`)

	all := mustRun(t, cfg, "settings", "get", "--actor", "2001")
	assert.Contains(t, all, "trainingEnabled,false")
}

func TestCanApplyDenied(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "seed", writeSeed(t))
	mustRun(t, cfg, "settings", "set", "--actor", "2003", "trainingEnabled", "false")

	out := mustRun(t, cfg, "can-apply", "--user", "1001")
	assert.Equal(t, "denied (intake_disabled): We are currently not accepting new training requests\n", out)

	_, err := run(t, cfg, "can-apply", "--user", "2001", "--actor", "1001")
	assert.ErrorContains(t, err, "not allowed to check eligibility of another member")
}

func TestVersion(t *testing.T) {
	out := mustRun(t, testConfig(t), "version")
	assert.True(t, strings.HasPrefix(out, "trainingdesk dev"))
}
