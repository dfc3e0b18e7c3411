package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
source:
  path: /tmp/saves
  pattern: "*.sav"
  watch:
    mode: poll
    pollInterval: 250ms
    timeout: 5s
    sampleInterval: 1s
    stableSamples: 3
destination:
  root: /tmp/backups
  datePartition: true
  retention:
    limit: 7
    schedule: "0 * * * *"
restore:
  lockAttempts: 4
  lockDelay: 100ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "/tmp/saves", cfg.Source.Path)
	require.Equal(t, "*.sav", cfg.Source.Pattern)
	require.Equal(t, "poll", cfg.Source.Watch.Mode)
	require.Equal(t, 250*time.Millisecond, cfg.Source.Watch.PollInterval.Std())
	require.Equal(t, 5*time.Second, cfg.Source.Watch.Timeout.Std())
	require.Equal(t, 3, cfg.Source.Watch.StableSamples)
	require.True(t, cfg.Destination.DatePartition)
	require.Equal(t, 7, cfg.Destination.Retention.Limit)
	require.Equal(t, "0 * * * *", cfg.Destination.Retention.Schedule)
	require.Equal(t, 4, cfg.Restore.LockAttempts)
	require.Equal(t, 100*time.Millisecond, cfg.Restore.LockDelay.Std())
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
source:
  path: /tmp/saves
destination:
  root: /tmp/backups
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "*.sav", cfg.Source.Pattern)
	require.Equal(t, "auto", cfg.Source.Watch.Mode)
	require.Equal(t, 2*time.Second, cfg.Source.Watch.PollInterval.Std())
	require.Equal(t, time.Duration(0), cfg.Source.Watch.Timeout.Std())
	require.Equal(t, time.Second, cfg.Source.Watch.SampleInterval.Std())
	require.Equal(t, 2, cfg.Source.Watch.StableSamples)
	require.Equal(t, 10, cfg.Destination.Retention.Limit)
	require.Equal(t, 10, cfg.Restore.LockAttempts)
	require.Equal(t, 500*time.Millisecond, cfg.Restore.LockDelay.Std())
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("SAVEKEEPER_TEST_ROOT", "/data/backups")

	path := writeConfig(t, `
source:
  path: /tmp/saves
destination:
  root: $(SAVEKEEPER_TEST_ROOT)/nightly
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/data/backups/nightly", cfg.Destination.Root)
}

func TestDurationAcceptsBareSeconds(t *testing.T) {
	path := writeConfig(t, `
source:
  path: /tmp/saves
  watch:
    timeout: 5
destination:
  root: /tmp/backups
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, cfg.Source.Watch.Timeout.Std())
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	cfg := &Config{}
	cfg.Source.Path = dir
	cfg.Destination.Root = filepath.Join(dir, "backups")
	require.NoError(t, cfg.Validate())

	cfg.Source.Path = filepath.Join(dir, "does-not-exist")
	require.Error(t, cfg.Validate())

	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	cfg.Source.Path = file
	require.Error(t, cfg.Validate())

	cfg.Source.Path = ""
	require.Error(t, cfg.Validate())
}
