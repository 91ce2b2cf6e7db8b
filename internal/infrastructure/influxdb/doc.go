// Package influxdb provides InfluxDB connectivity for detection telemetry.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched point writes and health monitoring.
//
// # Purpose
//
// Each report cycle writes one point per drone (track history for
// dashboards) and each heartbeat writes a sample of sensor counters.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteSensorStats("sensor-01", map[string]int64{"occupied": 3})
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via the
// SetOnError callback. Connection and health check errors are returned directly.
package influxdb
