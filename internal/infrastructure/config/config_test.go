package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
sensor:
  id: "field-07"
scanner:
  source: "file"
  path: "/dev/ttyUSB0"
  window: "2s"
registry:
  capacity: 16
output:
  mesh:
    enabled: true
    device: "/dev/ttyS1"
    interval: "10s"
database:
  path: "/tmp/test.db"
mqtt:
  enabled: true
  broker:
    host: "broker.local"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Sensor.ID != "field-07" {
		t.Errorf("Sensor.ID = %q, want %q", cfg.Sensor.ID, "field-07")
	}
	if cfg.Scanner.Window != 2*time.Second {
		t.Errorf("Scanner.Window = %v, want 2s", cfg.Scanner.Window)
	}
	if cfg.Registry.Capacity != 16 {
		t.Errorf("Registry.Capacity = %d, want 16", cfg.Registry.Capacity)
	}
	if cfg.Output.Mesh.Interval != 10*time.Second {
		t.Errorf("Output.Mesh.Interval = %v, want 10s", cfg.Output.Mesh.Interval)
	}
	// Unset keys keep their defaults.
	if cfg.Output.Mesh.MaxMessageSize != 230 {
		t.Errorf("Output.Mesh.MaxMessageSize = %d, want 230", cfg.Output.Mesh.MaxMessageSize)
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.MQTT.TopicPrefix != "remoteid" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "remoteid")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "sensor: [unterminated")
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
registry:
  capacity: 0
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "registry.capacity") {
		t.Errorf("Load() error = %v, want registry.capacity message", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"missing sensor id", func(c *Config) { c.Sensor.ID = "" }, true},
		{"unknown source", func(c *Config) { c.Scanner.Source = "hci0" }, true},
		{"file source without path", func(c *Config) { c.Scanner.Source = SourceFile }, true},
		{"mqtt source without mqtt", func(c *Config) { c.Scanner.Source = SourceMQTT }, true},
		{"mqtt source with mqtt", func(c *Config) {
			c.Scanner.Source = SourceMQTT
			c.MQTT.Enabled = true
		}, false},
		{"zero window", func(c *Config) { c.Scanner.Window = 0 }, true},
		{"capacity too large", func(c *Config) { c.Registry.Capacity = 65 }, true},
		{"mesh without device", func(c *Config) { c.Output.Mesh.Enabled = true }, true},
		{"mesh tiny message", func(c *Config) {
			c.Output.Mesh.Enabled = true
			c.Output.Mesh.Device = "/dev/ttyS1"
			c.Output.Mesh.MaxMessageSize = 1
		}, true},
		{"disabled mesh ignores device", func(c *Config) { c.Output.Mesh.Device = "" }, false},
		{"invalid qos", func(c *Config) { c.MQTT.QoS = 3 }, true},
		{"influx without url", func(c *Config) { c.InfluxDB.Enabled = true }, true},
		{"api bad port", func(c *Config) { c.API.Port = 0 }, true},
		{"api disabled bad port", func(c *Config) {
			c.API.Enabled = false
			c.API.Port = 0
		}, false},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Sensor.ID = ""
	cfg.MQTT.QoS = 5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want error")
	}
	for _, want := range []string{"sensor.id", "mqtt.qos"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %v, missing %q", err, want)
		}
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{Read: 30, Write: 45, Idle: 60},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("REMOTEID_SENSOR_ID", "env-sensor")
	t.Setenv("REMOTEID_SCANNER_PATH", "/dev/ttyACM0")
	t.Setenv("REMOTEID_MESH_DEVICE", "/dev/ttyS2")
	t.Setenv("REMOTEID_DATABASE_PATH", "/custom/path.db")
	t.Setenv("REMOTEID_MQTT_HOST", "mqtt.example.com")
	t.Setenv("REMOTEID_MQTT_USERNAME", "testuser")
	t.Setenv("REMOTEID_MQTT_PASSWORD", "testpass")
	t.Setenv("REMOTEID_API_HOST", "192.168.1.1")
	t.Setenv("REMOTEID_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	checks := []struct {
		field, got, want string
	}{
		{"Sensor.ID", cfg.Sensor.ID, "env-sensor"},
		{"Scanner.Path", cfg.Scanner.Path, "/dev/ttyACM0"},
		{"Output.Mesh.Device", cfg.Output.Mesh.Device, "/dev/ttyS2"},
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Registry.Capacity != 8 {
		t.Errorf("Registry.Capacity = %d, want 8", cfg.Registry.Capacity)
	}
	if cfg.Scanner.Window != time.Second {
		t.Errorf("Scanner.Window = %v, want 1s", cfg.Scanner.Window)
	}
	if cfg.Output.Mesh.Interval != 5*time.Second {
		t.Errorf("Output.Mesh.Interval = %v, want 5s", cfg.Output.Mesh.Interval)
	}
	if cfg.Output.Heartbeat.Interval != time.Minute {
		t.Errorf("Output.Heartbeat.Interval = %v, want 1m", cfg.Output.Heartbeat.Interval)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Logging.Output = %q, want stderr", cfg.Logging.Output)
	}
}
