// Package api implements the sensor's HTTP REST API and WebSocket stream.
//
// This package provides:
//   - Read-only views of the device registry (current detections)
//   - Alias management for operator-assigned drone names
//   - Health, status and Prometheus metrics endpoints
//   - A WebSocket hub pushing each emitted detection to live clients
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Graceful Degradation
//
// Every collaborator except the registry is optional. Without a database
// the alias routes answer 503; without MQTT or InfluxDB the status view
// reports them as disabled.
package api
