package api

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/config"
	"github.com/nerrad567/remoteid-mesh/internal/report"
)

func TestViewerDeliver(t *testing.T) {
	v := newViewer(nil, report.ChannelDetection)

	for i := 0; i < wsSendBufferSize; i++ {
		if !v.deliver([]byte("x")) {
			t.Fatalf("deliver() #%d = false, want true", i)
		}
	}
	if v.deliver([]byte("x")) {
		t.Error("deliver() on full buffer = true, want false")
	}

	v.stop()
	v.stop()
	<-v.out
	if v.deliver([]byte("x")) {
		t.Error("deliver() after stop = true, want false")
	}
}

func TestViewerFollow(t *testing.T) {
	v := newViewer(nil, report.ChannelDetection)

	v.follow([]string{"health"})
	v.unfollow([]string{report.ChannelDetection})

	if v.wants(report.ChannelDetection) {
		t.Errorf("wants(%q) = true, want false", report.ChannelDetection)
	}
	if !v.wants("health") {
		t.Error(`wants("health") = false, want true`)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, testLogger())

	subscribed := newViewer(nil, report.ChannelDetection)
	other := newViewer(nil, "health")
	hub.add(subscribed)
	hub.add(other)

	hub.Broadcast(report.ChannelDetection, map[string]string{"mac": "aa:bb:cc:dd:ee:ff"})

	if len(other.out) != 0 {
		t.Errorf("unsubscribed viewer queued %d frames, want 0", len(other.out))
	}

	var msg WSMessage
	if err := json.Unmarshal(<-subscribed.out, &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if msg.Type != report.ChannelDetection {
		t.Errorf("Type = %q, want %q", msg.Type, report.ChannelDetection)
	}
	if msg.Timestamp == "" {
		t.Error("Timestamp is empty")
	}

	subscribed.stop()
	hub.Broadcast(report.ChannelDetection, nil)
	if got := hub.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
}

func TestHubRunClosesViewers(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, testLogger())
	v := newViewer(nil)
	hub.add(v)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0", got)
	}
	select {
	case <-v.done:
	default:
		t.Error("viewer not stopped after Run returned")
	}
}

func TestHandleFrame(t *testing.T) {
	srv := &Server{}
	tests := []struct {
		name     string
		frame    string
		wantType string
		wantID   string
	}{
		{"ping", `{"type":"ping","id":"1"}`, WSTypePong, "1"},
		{"subscribe", `{"type":"subscribe","id":"2","payload":{"channels":["health"]}}`, WSTypeResponse, "2"},
		{"subscribe without payload", `{"type":"subscribe","id":"3"}`, WSTypeError, "3"},
		{"unknown", `{"type":"shout","id":"4"}`, WSTypeError, "4"},
		{"bad json", `{`, WSTypeError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViewer(nil)
			srv.handleFrame(v, []byte(tt.frame))

			var msg WSMessage
			if err := json.Unmarshal(<-v.out, &msg); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if msg.Type != tt.wantType || msg.ID != tt.wantID {
				t.Errorf("reply = (%q, %q), want (%q, %q)", msg.Type, msg.ID, tt.wantType, tt.wantID)
			}
		})
	}

	v := newViewer(nil)
	srv.handleFrame(v, []byte(`{"type":"subscribe","payload":{"channels":["health"]}}`))
	if !v.wants("health") {
		t.Error(`wants("health") after subscribe = false, want true`)
	}
}
