package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Publisher is the subset of the MQTT client used by MQTTSink.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTSinkOptions configures an MQTTSink.
type MQTTSinkOptions struct {
	Publisher Publisher

	// DetectionTopic returns the topic for a device, given its MAC without
	// separators.
	DetectionTopic func(mac string) string

	// CompactTopic receives compact lines.
	CompactTopic string

	QoS byte
}

// MQTTSink publishes detections as retained per-device state and compact
// lines as plain messages, for relays that bridge MQTT onto the mesh.
type MQTTSink struct {
	opts MQTTSinkOptions
}

// NewMQTTSink creates an MQTTSink.
func NewMQTTSink(opts MQTTSinkOptions) *MQTTSink {
	return &MQTTSink{opts: opts}
}

// Name implements DetectionSink and CompactSink.
func (s *MQTTSink) Name() string { return "mqtt" }

// WriteDetection implements DetectionSink.
func (s *MQTTSink) WriteDetection(_ context.Context, d Detection) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding detection: %w", err)
	}
	topic := s.opts.DetectionTopic(strings.ReplaceAll(d.MAC, ":", ""))
	return s.opts.Publisher.Publish(topic, payload, s.opts.QoS, true)
}

// WriteCompact implements CompactSink.
func (s *MQTTSink) WriteCompact(_ context.Context, line string) error {
	return s.opts.Publisher.Publish(s.opts.CompactTopic, []byte(line), s.opts.QoS, false)
}
