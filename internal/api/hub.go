package api

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/config"
	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/logging"
)

// Hub fans detection frames out to connected WebSocket viewers.
//
// Frames are encoded once per broadcast. A viewer whose buffer is full
// misses the frame rather than stalling the report cycle; Dropped counts
// those misses.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu      sync.RWMutex
	viewers map[*viewer]struct{}

	dropped atomic.Uint64
}

// NewHub creates an empty hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		viewers: make(map[*viewer]struct{}),
	}
}

// Run blocks until ctx ends, then disconnects every viewer.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	viewers := h.viewers
	h.viewers = make(map[*viewer]struct{})
	h.mu.Unlock()

	for v := range viewers {
		v.stop()
	}
}

func (h *Hub) add(v *viewer) {
	h.mu.Lock()
	h.viewers[v] = struct{}{}
	n := len(h.viewers)
	h.mu.Unlock()
	h.logger.Debug("websocket viewer connected", "viewers", n)
}

func (h *Hub) remove(v *viewer) {
	h.mu.Lock()
	delete(h.viewers, v)
	n := len(h.viewers)
	h.mu.Unlock()

	v.stop()
	h.logger.Debug("websocket viewer disconnected", "viewers", n)
}

// Broadcast sends payload to every viewer subscribed to channel. The
// channel name becomes the frame type.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("encoding websocket frame", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*viewer, 0, len(h.viewers))
	for v := range h.viewers {
		if v.wants(channel) {
			targets = append(targets, v)
		}
	}
	h.mu.RUnlock()

	for _, v := range targets {
		if !v.deliver(data) {
			h.dropped.Add(1)
		}
	}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// Dropped returns how many frames were skipped for slow viewers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// viewer is one WebSocket connection. The write loop exits when done is
// closed; out is never closed, so late broadcasts cannot panic.
type viewer struct {
	conn *websocket.Conn
	out  chan []byte

	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	channels map[string]struct{}
}

func newViewer(conn *websocket.Conn, channels ...string) *viewer {
	v := &viewer{
		conn:     conn,
		out:      make(chan []byte, wsSendBufferSize),
		done:     make(chan struct{}),
		channels: make(map[string]struct{}, len(channels)),
	}
	for _, ch := range channels {
		v.channels[ch] = struct{}{}
	}
	return v
}

// deliver queues data without blocking. It returns false when the frame
// was not queued.
func (v *viewer) deliver(data []byte) bool {
	select {
	case <-v.done:
		return false
	default:
	}

	select {
	case v.out <- data:
		return true
	default:
		return false
	}
}

func (v *viewer) stop() {
	v.stopOnce.Do(func() {
		close(v.done)
		if v.conn != nil {
			v.conn.Close()
		}
	})
}

func (v *viewer) wants(channel string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.channels[channel]
	return ok
}

func (v *viewer) follow(channels []string) {
	v.mu.Lock()
	for _, ch := range channels {
		v.channels[ch] = struct{}{}
	}
	v.mu.Unlock()
}

func (v *viewer) unfollow(channels []string) {
	v.mu.Lock()
	for _, ch := range channels {
		delete(v.channels, ch)
	}
	v.mu.Unlock()
}
