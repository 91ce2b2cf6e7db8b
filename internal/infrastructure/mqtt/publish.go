package mqtt

import "fmt"

// maxPayloadSize bounds one payload. Detection documents are a few hundred
// bytes; anything near this is a bug upstream.
const maxPayloadSize = 1 << 20

// Publish sends payload to topic and waits for the broker to acknowledge
// it at the requested QoS.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case len(payload) > maxPayloadSize:
		return fmt.Errorf("%w: %d byte payload, limit %d", ErrPublishFailed, len(payload), maxPayloadSize)
	case !c.IsConnected():
		return ErrNotConnected
	}

	return await(c.paho.Publish(topic, qos, retained, payload), defaultPublishTimeout, ErrPublishFailed)
}

// PublishDefault publishes at the configured QoS.
func (c *Client) PublishDefault(topic string, payload []byte, retained bool) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), retained) //nolint:gosec // validated 0..2
}

// PublishHealth replaces the retained document on the sensor status topic.
// Heartbeats call this so late subscribers see current counters.
func (c *Client) PublishHealth(payload []byte) error {
	return c.PublishDefault(c.topics.Status(), payload, true)
}
