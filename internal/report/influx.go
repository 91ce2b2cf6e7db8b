package report

import (
	"context"
	"time"
)

// MeasurementDetection is the InfluxDB measurement for detections.
const MeasurementDetection = "remoteid_detection"

// PointWriter is the subset of the InfluxDB client used by InfluxSink.
type PointWriter interface {
	WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time)
}

// InfluxSink writes one point per detection. Coordinates are only written
// once they have been reported, so zero positions do not plot at 0,0.
type InfluxSink struct {
	w        PointWriter
	sensorID string
}

// NewInfluxSink creates an InfluxSink tagging points with sensorID.
func NewInfluxSink(w PointWriter, sensorID string) *InfluxSink {
	return &InfluxSink{w: w, sensorID: sensorID}
}

// Name implements DetectionSink.
func (s *InfluxSink) Name() string { return "influxdb" }

// WriteDetection implements DetectionSink. Writes are asynchronous; failures
// surface through the client's error callback.
func (s *InfluxSink) WriteDetection(_ context.Context, d Detection) error {
	tags := map[string]string{
		"sensor": s.sensorID,
		"mac":    d.MAC,
	}
	if d.BasicID != "" {
		tags["basic_id"] = d.BasicID
	}

	fields := map[string]interface{}{
		"rssi": d.RSSI,
	}
	if d.HasPosition() {
		fields["drone_lat"] = d.DroneLat
		fields["drone_long"] = d.DroneLong
		fields["drone_altitude"] = d.DroneAltitude
		fields["height_agl"] = d.HeightAGL
		fields["speed"] = d.Speed
		fields["heading"] = d.Heading
	}
	if d.HasPilotPosition() {
		fields["pilot_lat"] = d.PilotLat
		fields["pilot_long"] = d.PilotLong
	}

	ts := d.LastSeen
	if ts.IsZero() {
		ts = time.Now()
	}
	s.w.WritePointWithTime(MeasurementDetection, tags, fields, ts)
	return nil
}
