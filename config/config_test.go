package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "conf.json", `{
		"mqtt": {"broker": "tcp://localhost:1883", "client_id": "oneblood", "topic_prefix": "oneblood"},
		"match": {"weight_distance": 0.5, "weight_history": 0.2},
		"fabric": {"notify_timeout_seconds": 3},
		"auth": {"mode": "static", "static": [
			{"token": "tok-h", "identity": "hosp-1", "role": "hospital", "verified": true}
		]},
		"logging": {"backend": "sqlite", "path": "matches.db"},
		"api": {"addr": ":8088", "token": "secret"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	require.Equal(t, "oneblood", cfg.MQTT.Prefix())
	require.Equal(t, 3, cfg.Fabric.NotifyTimeoutSeconds)
	require.Equal(t, "static", cfg.Auth.Mode)
	require.Len(t, cfg.Auth.Static, 1)
	require.Equal(t, "hosp-1", cfg.Auth.Static[0].Identity)
	require.Equal(t, "sqlite", cfg.Logging.Backend)
	require.Equal(t, ":8088", cfg.API.Addr)

	w := cfg.Match.Weights()
	require.Equal(t, 0.5, w.Distance)
	require.Equal(t, 0.2, w.History)
	// Unset weights keep their defaults.
	require.Equal(t, 0.3, w.Compatibility)
	require.Equal(t, 0.2, w.Availability)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "conf.yaml", `
mqtt:
  broker: tcp://broker:1883
  topic_prefix: ob
sweeper:
  interval_minutes: 30
telemetry:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	require.Equal(t, 30, cfg.Sweeper.IntervalMinutes)
	require.True(t, cfg.Telemetry.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeFile(t, "conf.json", `{"mqtt": {"broker": "tcp://file:1883"}}`)
	t.Setenv("OB_MQTT__BROKER", "tcp://env:1883")
	t.Setenv("OB_API__TOKEN", "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "tcp://env:1883", cfg.MQTT.Broker)
	require.Equal(t, "env-token", cfg.API.Token)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "conf.toml", `broker = "x"`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoggingDefaultsAndValidation(t *testing.T) {
	var c LoggingConfig
	c.SetDefaults()
	require.Equal(t, "jsonl", c.Backend)
	require.Equal(t, "matches.log", c.Path)
	require.NoError(t, c.Validate())

	c.Backend = "postgres"
	require.Error(t, c.Validate())
}

func TestTelemetryDefaults(t *testing.T) {
	var c TelemetryConfig
	require.Equal(t, 10, c.Interval())
	require.Equal(t, 3, c.Timeout())

	c.IntervalSeconds = 60
	c.TimeoutSeconds = 5
	require.Equal(t, 60, c.Interval())
	require.Equal(t, 5, c.Timeout())
}
