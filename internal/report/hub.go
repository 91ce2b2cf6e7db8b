package report

import "context"

// ChannelDetection is the WebSocket channel detections are broadcast on.
const ChannelDetection = "detection"

// Broadcaster is the subset of the WebSocket hub used by HubSink.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// HubSink pushes detections to live WebSocket clients.
type HubSink struct {
	b Broadcaster
}

// NewHubSink creates a HubSink.
func NewHubSink(b Broadcaster) *HubSink {
	return &HubSink{b: b}
}

// Name implements DetectionSink.
func (s *HubSink) Name() string { return "websocket" }

// WriteDetection implements DetectionSink.
func (s *HubSink) WriteDetection(_ context.Context, d Detection) error {
	s.b.Broadcast(ChannelDetection, d)
	return nil
}
