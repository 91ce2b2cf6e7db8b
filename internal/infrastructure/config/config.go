package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config mirrors config.yaml. Selected keys can be overridden from the
// environment; see Load.
type Config struct {
	Sensor    SensorConfig    `yaml:"sensor"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	Registry  RegistryConfig  `yaml:"registry"`
	Output    OutputConfig    `yaml:"output"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SensorConfig identifies this sensor in topics, metrics and telemetry.
type SensorConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// ScannerConfig selects where raw advertisements come from.
type ScannerConfig struct {
	// Source is one of "stdin", "file" or "mqtt".
	Source string `yaml:"source"`

	// Path is the file, FIFO or serial device read when Source is "file".
	Path string `yaml:"path"`

	// Window is the length of each scan phase before the report phase runs.
	Window time.Duration `yaml:"window"`

	// Buffer is the number of advertisements queued between source and pipeline.
	Buffer int `yaml:"buffer"`
}

// RegistryConfig sizes the device registry.
type RegistryConfig struct {
	Capacity int `yaml:"capacity"`
}

// OutputConfig contains the report channels.
type OutputConfig struct {
	JSON      JSONOutputConfig `yaml:"json"`
	Mesh      MeshOutputConfig `yaml:"mesh"`
	Heartbeat HeartbeatConfig  `yaml:"heartbeat"`
}

// JSONOutputConfig configures the line-delimited detection stream.
type JSONOutputConfig struct {
	Enabled bool `yaml:"enabled"`

	// Output is "stdout" or a file/serial device path.
	Output string `yaml:"output"`
}

// MeshOutputConfig configures the compact mesh radio channel.
type MeshOutputConfig struct {
	Enabled bool   `yaml:"enabled"`
	Device  string `yaml:"device"`

	// Interval is the minimum spacing between compact emissions for the
	// whole channel, not per device.
	Interval time.Duration `yaml:"interval"`

	// MaxMessageSize bounds a single compact line including its terminator.
	MaxMessageSize int `yaml:"max_message_size"`

	// PilotDelay separates the drone line from the pilot line.
	PilotDelay time.Duration `yaml:"pilot_delay"`
}

// HeartbeatConfig configures the liveness message.
type HeartbeatConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// DatabaseConfig locates the SQLite file holding aliases.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig enables the broker link used for fan-out and remote scanners.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	TopicPrefix string              `yaml:"topic_prefix"`
}

// MQTTBrokerConfig is the broker endpoint. ClientID must be unique per sensor.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig holds broker credentials; leave empty for anonymous access.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig bounds the reconnect backoff, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig enables detection telemetry. FlushInterval is in seconds.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig enables the local HTTP API.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`

	// StaleAfter marks a detection inactive in API views once it has not
	// been seen for this long. Registry slots are never expired.
	StaleAfter time.Duration `yaml:"stale_after"`
}

// APITimeoutConfig holds server timeouts in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig lists browser origins allowed to call the API. Empty allows any.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig tunes the live detection feed. Intervals are in seconds.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// LoggingConfig selects log level, format and destination.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Scanner source names.
const (
	SourceStdin = "stdin"
	SourceFile  = "file"
	SourceMQTT  = "mqtt"
)

const maxRegistryCapacity = 64

// Load builds the configuration in three layers: defaultConfig, then the
// YAML file at path, then REMOTEID_* environment variables such as
// REMOTEID_SENSOR_ID or REMOTEID_MQTT_HOST. The result is validated.
//
// Returns:
//   - *Config: ready to use
//   - error: unreadable or malformed file, or every validation failure at once
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config matching the reference sensor firmware:
// 1s scan windows, 8 registry slots, compact reports at most every 5s and a
// heartbeat every minute.
func defaultConfig() *Config {
	return &Config{
		Sensor: SensorConfig{
			ID:   "remoteid-01",
			Name: "Remote ID sensor",
		},
		Scanner: ScannerConfig{
			Source: SourceStdin,
			Window: time.Second,
			Buffer: 256, //nolint:mnd // queue depth
		},
		Registry: RegistryConfig{
			Capacity: 8, //nolint:mnd // firmware slot count
		},
		Output: OutputConfig{
			JSON: JSONOutputConfig{
				Enabled: true,
				Output:  "stdout",
			},
			Mesh: MeshOutputConfig{
				Interval:       5 * time.Second, //nolint:mnd // mesh airtime budget
				MaxMessageSize: 230,             //nolint:mnd // mesh payload limit
				PilotDelay:     time.Second,
			},
			Heartbeat: HeartbeatConfig{
				Interval: time.Minute,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/remoteid.db",
			WALMode:     true,
			BusyTimeout: 5, //nolint:mnd // seconds
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883, //nolint:mnd // default MQTT port
				ClientID: "remoteid-mesh",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60, //nolint:mnd // seconds
			},
			TopicPrefix: "remoteid",
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "remoteid",
			BatchSize:     100, //nolint:mnd // points per batch
			FlushInterval: 10,  //nolint:mnd // seconds
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080, //nolint:mnd // default HTTP port
			Timeouts: APITimeoutConfig{
				Read:  30, //nolint:mnd // seconds
				Write: 30, //nolint:mnd // seconds
				Idle:  60, //nolint:mnd // seconds
			},
			StaleAfter: time.Minute,
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192, //nolint:mnd // bytes
			PingInterval:   30,   //nolint:mnd // seconds
			PongTimeout:    10,   //nolint:mnd // seconds
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides copies set REMOTEID_* variables over file values.
// Secrets (tokens, passwords) belong here rather than in the file.
func applyEnvOverrides(cfg *Config) {
	for name, field := range map[string]*string{
		"REMOTEID_SENSOR_ID":      &cfg.Sensor.ID,
		"REMOTEID_SCANNER_PATH":   &cfg.Scanner.Path,
		"REMOTEID_MESH_DEVICE":    &cfg.Output.Mesh.Device,
		"REMOTEID_DATABASE_PATH":  &cfg.Database.Path,
		"REMOTEID_MQTT_HOST":      &cfg.MQTT.Broker.Host,
		"REMOTEID_MQTT_USERNAME":  &cfg.MQTT.Auth.Username,
		"REMOTEID_MQTT_PASSWORD":  &cfg.MQTT.Auth.Password,
		"REMOTEID_API_HOST":       &cfg.API.Host,
		"REMOTEID_INFLUXDB_TOKEN": &cfg.InfluxDB.Token,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*field = v
		}
	}
}

// Validate reports every invalid setting in one error, so an operator can
// fix the file in a single pass.
func (c *Config) Validate() error {
	var errs []string

	if c.Sensor.ID == "" {
		errs = append(errs, "sensor.id is required")
	}

	switch c.Scanner.Source {
	case SourceStdin:
	case SourceFile:
		if c.Scanner.Path == "" {
			errs = append(errs, "scanner.path is required for the file source")
		}
	case SourceMQTT:
		if !c.MQTT.Enabled {
			errs = append(errs, "scanner.source mqtt requires mqtt.enabled")
		}
	default:
		errs = append(errs, "scanner.source must be stdin, file, or mqtt")
	}
	if c.Scanner.Window <= 0 {
		errs = append(errs, "scanner.window must be positive")
	}
	if c.Scanner.Buffer < 1 {
		errs = append(errs, "scanner.buffer must be at least 1")
	}

	if c.Registry.Capacity < 1 || c.Registry.Capacity > maxRegistryCapacity {
		errs = append(errs, fmt.Sprintf("registry.capacity must be between 1 and %d", maxRegistryCapacity))
	}

	if c.Output.JSON.Enabled && c.Output.JSON.Output == "" {
		errs = append(errs, "output.json.output is required when enabled")
	}
	if c.Output.Mesh.Enabled {
		if c.Output.Mesh.Device == "" {
			errs = append(errs, "output.mesh.device is required when enabled")
		}
		if c.Output.Mesh.Interval <= 0 {
			errs = append(errs, "output.mesh.interval must be positive")
		}
		if c.Output.Mesh.MaxMessageSize < 2 { //nolint:mnd // one byte of text plus terminator
			errs = append(errs, "output.mesh.max_message_size must be at least 2")
		}
		if c.Output.Mesh.PilotDelay < 0 {
			errs = append(errs, "output.mesh.pilot_delay must not be negative")
		}
	}
	if c.Output.Heartbeat.Interval < 0 {
		errs = append(errs, "output.heartbeat.interval must not be negative")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required when enabled")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when enabled")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
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
