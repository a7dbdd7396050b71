package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Tick sources accepted by engine.tick_source.
const (
	TickSourceLocal = "local"
	TickSourceMQTT  = "mqtt"
)

// Config is the root configuration structure for TickPilot.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Engine    EngineConfig             `yaml:"engine"`
	Features  map[string]FeatureConfig `yaml:"features"`
	Database  DatabaseConfig           `yaml:"database"`
	MQTT      MQTTConfig               `yaml:"mqtt"`
	API       APIConfig                `yaml:"api"`
	WebSocket WebSocketConfig          `yaml:"websocket"`
	InfluxDB  InfluxDBConfig           `yaml:"influxdb"`
	Logging   LoggingConfig            `yaml:"logging"`
	Security  SecurityConfig           `yaml:"security"`
}

// EngineConfig controls the tick loop and the automation defaults shared by
// every feature.
type EngineConfig struct {
	// TickInterval is the local tick period. Ignored when TickSource is "mqtt".
	TickInterval time.Duration `yaml:"tick_interval"`

	// TickSource selects what drives the engine: "local" (a ticker) or
	// "mqtt" (host tick pulses).
	TickSource string `yaml:"tick_source"`

	// GenericThrottle is the cooldown of the shared generic throttle key.
	GenericThrottle time.Duration `yaml:"generic_throttle"`

	// StepTimeout is the default deadline applied to task steps that do not
	// declare their own.
	StepTimeout time.Duration `yaml:"step_timeout"`

	// TimeoutSilently downgrades step timeouts to warnings.
	TimeoutSilently bool `yaml:"timeout_silently"`

	// AbortOnTimeout clears the remaining queue when a step times out.
	AbortOnTimeout bool `yaml:"abort_on_timeout"`

	// PluginName prefixes module messages sent to the host chat.
	PluginName string `yaml:"plugin_name"`
}

// FeatureConfig holds per-feature startup settings.
type FeatureConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket event stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains the HMAC secret used to verify API bearer tokens.
// An empty secret leaves the control API unauthenticated, which is only
// sensible when it listens on loopback.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TICKPILOT_SECTION_KEY
// For example: TICKPILOT_DATABASE_PATH, TICKPILOT_ENGINE_TICK_INTERVAL
//
// An empty path skips step 2 so the binary can run on defaults alone.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			TickInterval:    50 * time.Millisecond,
			TickSource:      TickSourceLocal,
			GenericThrottle: 200 * time.Millisecond,
			StepTimeout:     10 * time.Second,
			TimeoutSilently: true,
			AbortOnTimeout:  true,
			PluginName:      "TickPilot",
		},
		Features: map[string]FeatureConfig{},
		Database: DatabaseConfig{
			Path:        "./data/tickpilot.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "tickpilot",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				Issuer: "tickpilot",
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TICKPILOT_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Engine
	if v := os.Getenv("TICKPILOT_ENGINE_TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TICKPILOT_ENGINE_TICK_INTERVAL: %w", err)
		}
		cfg.Engine.TickInterval = d
	}
	if v := os.Getenv("TICKPILOT_ENGINE_TICK_SOURCE"); v != "" {
		cfg.Engine.TickSource = strings.ToLower(v)
	}
	if v := os.Getenv("TICKPILOT_ENGINE_TIMEOUT_SILENTLY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TICKPILOT_ENGINE_TIMEOUT_SILENTLY: %w", err)
		}
		cfg.Engine.TimeoutSilently = b
	}

	// Database
	if v := os.Getenv("TICKPILOT_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("TICKPILOT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("TICKPILOT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("TICKPILOT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("TICKPILOT_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("TICKPILOT_API_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TICKPILOT_API_PORT: %w", err)
		}
		cfg.API.Port = p
	}

	// InfluxDB
	if v := os.Getenv("TICKPILOT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("TICKPILOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Security
	if v := os.Getenv("TICKPILOT_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}

	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Engine
	switch c.Engine.TickSource {
	case TickSourceLocal:
		if c.Engine.TickInterval <= 0 {
			errs = append(errs, "engine.tick_interval must be positive")
		}
	case TickSourceMQTT:
		if !c.MQTT.Enabled {
			errs = append(errs, "engine.tick_source mqtt requires mqtt.enabled")
		}
	default:
		errs = append(errs, "engine.tick_source must be local or mqtt")
	}
	if c.Engine.GenericThrottle < 0 {
		errs = append(errs, "engine.generic_throttle must not be negative")
	}
	if c.Engine.StepTimeout <= 0 {
		errs = append(errs, "engine.step_timeout must be positive")
	}

	// Database
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	// Security: a configured secret must be long enough to resist guessing.
	const minJWTSecretLength = 32
	if s := c.Security.JWT.Secret; s != "" && len(s) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// FeatureEnabled reports whether the feature with the given key is switched
// on in the configuration file.
func (c *Config) FeatureEnabled(key string) bool {
	return c.Features[key].Enabled
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
