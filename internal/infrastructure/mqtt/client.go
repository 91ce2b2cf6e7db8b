package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/config"
)

// Client is one sensor's connection to the broker.
//
// The broker holds a retained status document for the sensor: "online" after
// every (re)connect, "offline" on Close, and the will message if the sensor
// drops off without closing. Subscriptions survive reconnects.
//
// All methods are safe for concurrent use.
type Client struct {
	paho     pahomqtt.Client
	cfg      config.MQTTConfig
	sensorID string
	topics   Topics

	subs      subscriptionTable
	connected atomic.Bool

	mu           sync.RWMutex
	onConnect    func()
	onDisconnect func(err error)
	logger       Logger
}

// Logger is the subset of logging.Logger the client needs.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// MessageHandler receives a message. It runs on a paho goroutine and must
// not block; a returned error is logged and otherwise ignored.
type MessageHandler func(topic string, payload []byte) error

// Connect dials the broker named in cfg with the sensor's will message set,
// and waits up to the connect timeout for the first session.
//
// Parameters:
//   - cfg: mqtt section of config.yaml
//   - sensorID: names the sensor's topic namespace and status documents
//
// Returns:
//   - *Client: connected client
//   - error: wraps ErrConnectionFailed
func Connect(cfg config.MQTTConfig, sensorID string) (*Client, error) {
	c := &Client{
		cfg:      cfg,
		sensorID: sensorID,
		topics:   NewTopics(cfg.TopicPrefix, sensorID),
	}

	opts := buildClientOptions(cfg)
	configureLWT(opts, c.topics, sensorID, cfg.Broker.ClientID)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.handleConnect() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.handleDisconnect(err) })
	opts.SetReconnectingHandler(func(pahomqtt.Client, *pahomqtt.ClientOptions) {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("MQTT reconnecting", "client_id", cfg.Broker.ClientID)
		}
	})

	c.paho = pahomqtt.NewClient(opts)
	if err := await(c.paho.Connect(), defaultConnectTimeout, ErrConnectionFailed); err != nil {
		c.paho.Disconnect(0)
		return nil, err
	}

	// The connect handler runs asynchronously; publishing may start now.
	c.connected.Store(true)
	return c, nil
}

// await waits for token and wraps a timeout or failure in sentinel.
func await(token pahomqtt.Token, timeout time.Duration, sentinel error) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: %w after %v", sentinel, ErrTimeout, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return nil
}

func (c *Client) handleConnect() {
	c.connected.Store(true)

	c.subs.each(func(s subscription) {
		// Failures surface as missing traffic; the next reconnect retries.
		c.paho.Subscribe(s.topic, s.qos, c.wrapHandler(s.handler))
	})
	c.publishStatus(StatusOnline, "")

	c.mu.RLock()
	callback := c.onConnect
	c.mu.RUnlock()
	if callback != nil {
		callback()
	}
}

func (c *Client) handleDisconnect(err error) {
	c.connected.Store(false)

	c.mu.RLock()
	callback := c.onDisconnect
	c.mu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// publishStatus publishes a retained status document without waiting.
func (c *Client) publishStatus(status, reason string) pahomqtt.Token {
	payload := buildStatusPayload(status, c.sensorID, c.cfg.Broker.ClientID, reason)
	return c.paho.Publish(c.topics.Status(), byte(c.cfg.QoS), true, payload) //nolint:gosec // validated 0..2
}

// Topics returns the topic builder for this sensor.
func (c *Client) Topics() Topics {
	return c.topics
}

// Close marks the sensor offline on its status topic and disconnects.
// Safe on a client that never connected.
func (c *Client) Close() error {
	if c.paho == nil {
		return nil
	}

	if c.IsConnected() {
		c.publishStatus(StatusOffline, "graceful_shutdown").WaitTimeout(defaultPublishTimeout)
	}
	c.paho.Disconnect(defaultDisconnectQuiesce)
	c.connected.Store(false)
	return nil
}

// HealthCheck reports ErrNotConnected while the session is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports the last known session state.
func (c *Client) IsConnected() bool {
	return c.connected.Load() && c.paho != nil && c.paho.IsConnected()
}

// SetOnConnect sets a callback run after every connect and reconnect.
func (c *Client) SetOnConnect(callback func()) {
	c.mu.Lock()
	c.onConnect = callback
	c.mu.Unlock()
}

// SetOnDisconnect sets a callback run when the session is lost.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.mu.Lock()
	c.onDisconnect = callback
	c.mu.Unlock()
}

// SetLogger sets the logger for handler failures and reconnects.
func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// wrapHandler adapts handler to paho, logging returned errors and
// recovering panics so one bad payload cannot kill the client goroutine.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := c.getLogger(); logger != nil {
					logger.Error("MQTT handler panic recovered", "topic", msg.Topic(), "panic", r)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Warn("MQTT handler returned error", "topic", msg.Topic(), "error", err)
			}
		}
	}
}
