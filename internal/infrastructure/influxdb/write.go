package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementSensor is the measurement used for periodic sensor statistics.
const MeasurementSensor = "remoteid_sensor"

// WritePoint writes a point stamped with the current time.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a point with a specific timestamp, typically the
// moment a drone was last heard rather than the moment it was reported.
// The write is non-blocking; points are batched and sent asynchronously.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}

// WriteSensorStats records a heartbeat sample of sensor counters, plus the
// client's own rejected-batch count as write_errors.
//
// Parameters:
//   - sensorID: tag identifying the sensor
//   - stats: counter name to value, e.g. "occupied" or "adverts_merged"
func (c *Client) WriteSensorStats(sensorID string, stats map[string]int64) {
	if len(stats) == 0 {
		return
	}

	fields := make(map[string]interface{}, len(stats)+1)
	for k, v := range stats {
		fields[k] = v
	}
	fields["write_errors"] = int64(c.WriteErrors()) //nolint:gosec // counter fits in int64

	c.WritePoint(MeasurementSensor, map[string]string{"sensor": sensorID}, fields)
}
