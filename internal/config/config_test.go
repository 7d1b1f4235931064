package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Gallery.InitialBatch)
	assert.Equal(t, 8, cfg.Gallery.BatchSize)
	assert.Equal(t, 800*time.Millisecond, cfg.Gallery.Latency)
	assert.Equal(t, 0.1, cfg.Gallery.FaultRate)
	assert.Equal(t, 3*time.Second, cfg.Gallery.RetryDelay)
	assert.Equal(t, 3, cfg.Gallery.MaxRetries)
	assert.Equal(t, 2, cfg.Gallery.TriggerMargin)
	assert.Equal(t, ":memory:", cfg.Catalog.DBPath)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/shutter-test
gallery:
  initial_batch: 6
  batch_size: 4
  latency: 50ms
  fault_rate: 0
  retry_delay: 1s
  category: nature
catalog:
  db_path: /tmp/shutter-test/catalog.db
  feeds:
    - url: https://example.com/feed.xml
      category: landscape
metrics:
  addr: ":9100"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/shutter-test", cfg.DataDir)
	assert.Equal(t, 6, cfg.Gallery.InitialBatch)
	assert.Equal(t, 4, cfg.Gallery.BatchSize)
	assert.Equal(t, 50*time.Millisecond, cfg.Gallery.Latency)
	assert.Equal(t, 0.0, cfg.Gallery.FaultRate)
	assert.Equal(t, time.Second, cfg.Gallery.RetryDelay)
	assert.Equal(t, 3, cfg.Gallery.MaxRetries, "unset keys keep defaults")
	assert.Equal(t, "nature", cfg.Gallery.Category)
	require.Len(t, cfg.Catalog.Feeds, 1)
	assert.Equal(t, "landscape", cfg.Catalog.Feeds[0].Category)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SHUTTER_TEST_DIR", "/srv/pictures")
	path := writeConfig(t, "download:\n  dir: ${SHUTTER_TEST_DIR}/saved\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/pictures/saved", cfg.Download.Dir)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SHUTTER_FAULT_RATE", "0.5")
	t.Setenv("SHUTTER_LATENCY", "10ms")
	t.Setenv("SHUTTER_RETRY_DELAY", "100ms")
	t.Setenv("SHUTTER_CATEGORY", "abstract")

	cfg, err := Load(writeConfig(t, "gallery:\n  fault_rate: 0.2\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Gallery.FaultRate)
	assert.Equal(t, 10*time.Millisecond, cfg.Gallery.Latency)
	assert.Equal(t, 100*time.Millisecond, cfg.Gallery.RetryDelay)
	assert.Equal(t, "abstract", cfg.Gallery.Category)
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("SHUTTER_LATENCY", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero batch", "gallery:\n  batch_size: -1\n"},
		{"fault rate", "gallery:\n  fault_rate: 1.5\n"},
		{"negative retries", "gallery:\n  max_retries: -2\n"},
		{"rate limit", "download:\n  rate_limit: 0\n"},
		{"bad yaml", "gallery: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/data"
	assert.Equal(t, "/data/logs", cfg.LogDir())
	assert.Equal(t, "/data/shutter.events.jsonl", cfg.EventLogPath())
}
