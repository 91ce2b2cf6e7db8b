package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/remoteid-mesh/internal/report"
)

// Frame types a viewer may send, and the replies it gets.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeResponse    = "response"
	WSTypeError       = "error"

	defaultWSPath    = "/ws"
	wsSendBufferSize = 256
)

// WSMessage is one frame on the feed. Broadcasts put the channel name in
// Type; replies echo the request ID.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload names the channels in a subscribe or unsubscribe frame.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// inboundFrame defers payload decoding until the type is known.
type inboundFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is read-only; origin policy is left to the CORS allow list
	// on the REST routes.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWebSocket upgrades the request and starts the viewer's read and
// write loops. Viewers follow the detection channel from the start.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	v := newViewer(conn, report.ChannelDetection)
	s.hub.add(v)

	ping := time.Duration(s.wsCfg.PingInterval) * time.Second
	pong := time.Duration(s.wsCfg.PongTimeout) * time.Second

	go s.writeLoop(v, ping, pong)
	go s.readLoop(v, ping+pong)
}

// readLoop handles control frames until the connection fails. Any frame,
// including a protocol pong, extends the deadline.
func (s *Server) readLoop(v *viewer, idle time.Duration) {
	defer s.hub.remove(v)

	if s.wsCfg.MaxMessageSize > 0 {
		v.conn.SetReadLimit(int64(s.wsCfg.MaxMessageSize))
	}
	extend := func(string) error { return v.conn.SetReadDeadline(time.Now().Add(idle)) }
	extend("") //nolint:errcheck // a failed deadline shows up as a read error
	v.conn.SetPongHandler(extend)

	for {
		_, data, err := v.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		extend("") //nolint:errcheck // as above
		s.handleFrame(v, data)
	}
}

// writeLoop drains the viewer's queue and pings on an interval.
func (s *Server) writeLoop(v *viewer, ping, writeWait time.Duration) {
	ticker := time.NewTicker(ping)
	defer ticker.Stop()
	defer v.stop()

	write := func(kind int, data []byte) error {
		v.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // write reports the failure
		return v.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case <-v.done:
			write(websocket.CloseMessage, nil) //nolint:errcheck // connection is going away
			return
		case data := <-v.out:
			if err := write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleFrame(v *viewer, data []byte) {
	var in inboundFrame
	if err := json.Unmarshal(data, &in); err != nil {
		reply(v, "", WSTypeError, map[string]string{"message": "invalid JSON message"})
		return
	}

	switch in.Type {
	case WSTypePing:
		reply(v, in.ID, WSTypePong, nil)

	case WSTypeSubscribe, WSTypeUnsubscribe:
		var req WSSubscribePayload
		if len(in.Payload) == 0 || json.Unmarshal(in.Payload, &req) != nil {
			reply(v, in.ID, WSTypeError, map[string]string{"message": "invalid " + in.Type + " payload"})
			return
		}
		if in.Type == WSTypeSubscribe {
			v.follow(req.Channels)
			reply(v, in.ID, WSTypeResponse, map[string]any{"subscribed": req.Channels})
		} else {
			v.unfollow(req.Channels)
			reply(v, in.ID, WSTypeResponse, map[string]any{"unsubscribed": req.Channels})
		}

	default:
		reply(v, in.ID, WSTypeError, map[string]string{"message": "unknown message type: " + in.Type})
	}
}

func reply(v *viewer, id, kind string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      kind,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err == nil {
		v.deliver(data)
	}
}
