package mqtt

import (
	"fmt"
	"sync"
)

type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// subscriptionTable remembers subscriptions so they can be replayed after a
// reconnect. The zero value is empty and ready to use.
type subscriptionTable struct {
	mu      sync.RWMutex
	entries map[string]subscription
}

func (t *subscriptionTable) put(s subscription) {
	t.mu.Lock()
	if t.entries == nil {
		t.entries = make(map[string]subscription)
	}
	t.entries[s.topic] = s
	t.mu.Unlock()
}

func (t *subscriptionTable) remove(topic string) {
	t.mu.Lock()
	delete(t.entries, topic)
	t.mu.Unlock()
}

func (t *subscriptionTable) has(topic string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[topic]
	return ok
}

func (t *subscriptionTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// each calls fn on a copy of the table, so fn may block on the broker.
func (t *subscriptionTable) each(fn func(subscription)) {
	t.mu.RLock()
	list := make([]subscription, 0, len(t.entries))
	for _, s := range t.entries {
		list = append(list, s)
	}
	t.mu.RUnlock()

	for _, s := range list {
		fn(s)
	}
}

// Subscribe routes messages matching topic to handler. Wildcards are
// allowed; the raw-advert source subscribes to Topics.AllRaw(). The
// subscription is replayed after every reconnect.
//
// Parameters:
//   - topic: topic filter
//   - qos: 0, 1 or 2
//   - handler: must not block
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected, or wraps ErrSubscribeFailed
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case handler == nil:
		return fmt.Errorf("%w: nil handler", ErrSubscribeFailed)
	case !c.IsConnected():
		return ErrNotConnected
	}

	sub := subscription{topic: topic, qos: qos, handler: handler}
	c.subs.put(sub)

	err := await(c.paho.Subscribe(topic, qos, c.wrapHandler(handler)), defaultPublishTimeout, ErrSubscribeFailed)
	if err != nil {
		c.subs.remove(topic)
	}
	return err
}

// Unsubscribe drops the subscription for the exact filter topic. Messages
// already in flight may still reach the handler.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subs.remove(topic)
	return await(c.paho.Unsubscribe(topic), defaultPublishTimeout, ErrUnsubscribeFailed)
}

// SubscriptionCount returns how many filters are replayed on reconnect.
func (c *Client) SubscriptionCount() int {
	return c.subs.len()
}

// HasSubscription reports whether the exact filter topic is held.
func (c *Client) HasSubscription(topic string) bool {
	return c.subs.has(topic)
}
