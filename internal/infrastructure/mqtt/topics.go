package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "remoteid"

// Topics builds the MQTT topic hierarchy for one sensor.
//
//	<prefix>/<sensor>/detection/<mac>   retained per-drone detection JSON
//	<prefix>/<sensor>/compact           compact drone and pilot lines
//	<prefix>/<sensor>/status            LWT, online/offline and health
//	<prefix>/raw/<sensor>               raw advertisement records (inbound)
type Topics struct {
	prefix string
	sensor string
}

// NewTopics returns topic builders for the given prefix and sensor ID.
// An empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix, sensorID string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix, sensor: sensorID}
}

// Prefix returns the root segment of every topic.
func (t Topics) Prefix() string {
	return t.prefix
}

// Detection returns the retained detection topic for a drone.
// Colons are removed from the MAC so each drone is one topic level.
//
// Example: remoteid/sensor-01/detection/aabbccddeeff
func (t Topics) Detection(mac string) string {
	return fmt.Sprintf("%s/%s/detection/%s", t.prefix, t.sensor, topicMAC(mac))
}

// Compact returns the topic carrying compact drone/pilot lines.
//
// Example: remoteid/sensor-01/compact
func (t Topics) Compact() string {
	return fmt.Sprintf("%s/%s/compact", t.prefix, t.sensor)
}

// Status returns the sensor status topic used for LWT and health.
//
// Example: remoteid/sensor-01/status
func (t Topics) Status() string {
	return fmt.Sprintf("%s/%s/status", t.prefix, t.sensor)
}

// Raw returns the topic a remote scanner publishes advertisements on.
//
// Example: remoteid/raw/sensor-02
func (t Topics) Raw(sensorID string) string {
	return fmt.Sprintf("%s/raw/%s", t.prefix, sensorID)
}

// AllRaw returns a pattern matching raw advertisements from every sensor.
//
// Pattern: remoteid/raw/+
func (t Topics) AllRaw() string {
	return fmt.Sprintf("%s/raw/+", t.prefix)
}

// AllDetections returns a pattern matching detections from every sensor.
//
// Pattern: remoteid/+/detection/+
func (t Topics) AllDetections() string {
	return fmt.Sprintf("%s/+/detection/+", t.prefix)
}

func topicMAC(mac string) string {
	return strings.ToLower(strings.NewReplacer(":", "", "-", "").Replace(mac))
}
