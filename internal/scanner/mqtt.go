package scanner

import (
	"context"
	"fmt"

	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/mqtt"
	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
)

// Subscriber is the subset of the MQTT client used by MQTTSource.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// MQTTSource receives advertisement records published by remote sensors.
//
// Messages arrive on the MQTT client's goroutines, so a full pipeline queue
// drops the advertisement instead of stalling the client.
type MQTTSource struct {
	sub    Subscriber
	topic  string
	qos    byte
	logger Logger
	counters
}

// NewMQTTSource creates a source subscribed to topic. The topic may contain
// wildcards.
func NewMQTTSource(sub Subscriber, topic string, qos byte) *MQTTSource {
	return &MQTTSource{sub: sub, topic: topic, qos: qos, logger: noopLogger{}}
}

// SetLogger sets the logger for invalid messages.
func (s *MQTTSource) SetLogger(logger Logger) {
	s.logger = logger
}

// Name implements Source.
func (s *MQTTSource) Name() string { return "mqtt:" + s.topic }

// Stats implements Source.
func (s *MQTTSource) Stats() Stats { return s.snapshot() }

// Run implements Source. It subscribes, then blocks until ctx is cancelled.
func (s *MQTTSource) Run(ctx context.Context, out chan<- remoteid.RawAdvertisement) error {
	handler := func(topic string, payload []byte) error {
		adv, err := ParseLine(payload)
		if err != nil {
			s.invalid.Add(1)
			return fmt.Errorf("advertisement on %s: %w", topic, err)
		}
		s.received.Add(1)

		select {
		case out <- adv:
		case <-ctx.Done():
		default:
			s.dropped.Add(1)
		}
		return nil
	}

	if err := s.sub.Subscribe(s.topic, s.qos, handler); err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.topic, err)
	}
	s.logger.Info("subscribed to raw advertisements", "topic", s.topic)

	<-ctx.Done()

	if err := s.sub.Unsubscribe(s.topic); err != nil {
		s.logger.Warn("unsubscribe failed", "topic", s.topic, "error", err)
	}
	return nil
}
