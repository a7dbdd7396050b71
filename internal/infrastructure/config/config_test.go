package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tickpilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
engine:
  tick_interval: 100ms
  generic_throttle: 250ms
  step_timeout: 5s
features:
  AutoConfirm:
    enabled: true
database:
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
  qos: 1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, cfg.Engine.TickInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.GenericThrottle)
	assert.Equal(t, 5*time.Second, cfg.Engine.StepTimeout)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, "broker.local", cfg.MQTT.Broker.Host)
	assert.True(t, cfg.FeatureEnabled("AutoConfirm"))
	assert.False(t, cfg.FeatureEnabled("JobAnnouncer"))

	// Untouched sections keep their defaults.
	assert.Equal(t, TickSourceLocal, cfg.Engine.TickSource)
	assert.True(t, cfg.Engine.TimeoutSilently)
	assert.Equal(t, "TickPilot", cfg.Engine.PluginName)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, cfg.Engine.GenericThrottle)
	assert.Equal(t, "./data/tickpilot.db", cfg.Database.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/tickpilot.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
engine:
  tick_source: "carrier-pigeon"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.tick_source")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TICKPILOT_DATABASE_PATH", "/var/lib/tickpilot.db")
	t.Setenv("TICKPILOT_ENGINE_TICK_INTERVAL", "20ms")
	t.Setenv("TICKPILOT_ENGINE_TIMEOUT_SILENTLY", "false")
	t.Setenv("TICKPILOT_API_PORT", "9191")
	t.Setenv("TICKPILOT_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/tickpilot.db", cfg.Database.Path)
	assert.Equal(t, 20*time.Millisecond, cfg.Engine.TickInterval)
	assert.False(t, cfg.Engine.TimeoutSilently)
	assert.Equal(t, 9191, cfg.API.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_BadEnvOverride(t *testing.T) {
	t.Setenv("TICKPILOT_ENGINE_TICK_INTERVAL", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "non-positive tick interval",
			mutate:  func(c *Config) { c.Engine.TickInterval = 0 },
			wantErr: "engine.tick_interval",
		},
		{
			name:   "mqtt tick source ignores interval",
			mutate: func(c *Config) { c.Engine.TickSource = TickSourceMQTT; c.Engine.TickInterval = 0 },
		},
		{
			name: "mqtt tick source needs mqtt",
			mutate: func(c *Config) {
				c.Engine.TickSource = TickSourceMQTT
				c.MQTT.Enabled = false
			},
			wantErr: "requires mqtt.enabled",
		},
		{
			name:    "negative generic throttle",
			mutate:  func(c *Config) { c.Engine.GenericThrottle = -time.Millisecond },
			wantErr: "engine.generic_throttle",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "invalid api port",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: "api.port",
		},
		{
			name:   "api port ignored when api disabled",
			mutate: func(c *Config) { c.API.Enabled = false; c.API.Port = 0 },
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: "influxdb.url",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "short" },
			wantErr: "security.jwt.secret",
		},
		{
			name:   "long jwt secret",
			mutate: func(c *Config) { c.Security.JWT.Secret = "a-secret-key-that-is-at-least-32-chars" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Timeouts(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 15*time.Second, cfg.GetReadTimeout())
	assert.Equal(t, 15*time.Second, cfg.GetWriteTimeout())
	assert.Equal(t, 60*time.Second, cfg.GetIdleTimeout())
}
