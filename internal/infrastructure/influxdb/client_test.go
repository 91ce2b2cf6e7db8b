package influxdb_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/config"
	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/influxdb"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "remoteid-dev-token",
		Org:           "remoteid",
		Bucket:        "remoteid",
		BatchSize:     100,
		FlushInterval: 1, // 1 second for faster test feedback
	}
}

// connectOrSkip connects to the local InfluxDB or skips the test.
func connectOrSkip(t *testing.T) *influxdb.Client {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION") == "" && testing.Short() {
		t.Skip("skipping InfluxDB test in short mode")
	}
	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// captureErrors records async write errors for later inspection.
func captureErrors(client *influxdb.Client) func() error {
	var (
		mu       sync.Mutex
		writeErr error
	)
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})
	return func() error {
		client.Flush()
		time.Sleep(100 * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		return writeErr
	}
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999" // Non-existent port

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect(t *testing.T) {
	client := connectOrSkip(t)

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

// =============================================================================
// Unconnected Client Tests
// =============================================================================

func TestUnconnectedClient(t *testing.T) {
	client := &influxdb.Client{}

	// Writes and flushes on an unconnected client are no-ops.
	client.WritePoint("m", map[string]string{"a": "b"}, map[string]interface{}{"v": 1})
	client.WriteSensorStats("sensor-01", map[string]int64{"occupied": 1})
	client.Flush()

	if client.IsConnected() {
		t.Error("IsConnected() = true, want false")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// =============================================================================
// Write Tests
// =============================================================================

func TestWritePointWithTime(t *testing.T) {
	client := connectOrSkip(t)
	flush := captureErrors(client)

	client.WritePointWithTime(
		"remoteid_detection",
		map[string]string{"sensor": "test", "mac": "aa:bb:cc:dd:ee:ff"},
		map[string]interface{}{"rssi": -60, "drone_lat": 51.5},
		time.Now().Add(-time.Minute),
	)

	if err := flush(); err != nil {
		t.Errorf("Write error = %v", err)
	}
}

func TestWriteSensorStats(t *testing.T) {
	client := connectOrSkip(t)
	flush := captureErrors(client)

	client.WriteSensorStats("test", map[string]int64{"occupied": 2, "adverts_merged": 40})
	client.WriteSensorStats("test", nil)

	if err := flush(); err != nil {
		t.Errorf("Write error = %v", err)
	}
}

func TestClose(t *testing.T) {
	client := connectOrSkip(t)

	client.WritePoint(influxdb.MeasurementSensor, map[string]string{"sensor": "close-test"}, map[string]interface{}{"v": 1})

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
}
