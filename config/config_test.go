package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `data:
  root: "/srv/tec"
  index_path: "/srv/tec/index.db"
logging:
  level: "debug"
  journal_path: "runs.jsonl"
  max_backups: 3
experiments:
  workers: 4
cache:
  enabled: true
  path: "/tmp/cache"
  ttl: "2h"
metrics:
  sinks:
    - type: "nop"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  qos:
    run: 1
api:
  token: "secret"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"data.root", cfg.Data.Root, "/srv/tec"},
		{"data.index_path", cfg.Data.IndexPath, "/srv/tec/index.db"},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"logging.journal_path", cfg.Logging.JournalPath, "runs.jsonl"},
		{"logging.max_size_mb", cfg.Logging.MaxSizeMB, 50},
		{"logging.max_backups", cfg.Logging.MaxBackups, 3},
		{"experiments.workers", cfg.Experiments.Workers, 4},
		{"cache.enabled", cfg.Cache.Enabled, true},
		{"cache.path", cfg.Cache.Path, "/tmp/cache"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.client_id", cfg.MQTT.ClientID, "cli"},
		{"mqtt.qos.run", cfg.MQTT.QoS["run"], byte(1)},
		{"mqtt.topic_prefix", cfg.MQTT.TopicPrefix, "tecsched"},
		{"api.addr", cfg.API.Addr, ":8080"},
		{"api.token", cfg.API.Token, "secret"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api":{"addr":":9000"}}`), 0o644))
	t.Setenv("TEC_API__ADDR", ":9100")
	t.Setenv("TEC_DATA__ROOT", "/env/root")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.API.Addr)
	assert.Equal(t, "/env/root", cfg.Data.Root)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.Data.Root)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, runtime.NumCPU(), cfg.Experiments.Workers)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoadRejects(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"level.yaml": "logging:\n  level: loud\n",
		"mqtt.yaml":  "mqtt:\n  enabled: true\n",
		"conf.toml":  "",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
