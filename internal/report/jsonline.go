package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// HeartbeatText is the liveness message written on the JSON channel.
const HeartbeatText = "Device is active and running."

type heartbeat struct {
	Heartbeat string `json:"heartbeat"`
}

// JSONLineWriter writes each event as one JSON object per line.
//
// Thread Safety:
//   - Safe for concurrent use; lines are never interleaved.
type JSONLineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONLineWriter creates a JSONLineWriter on w (stdout, a file, or a
// serial device).
func NewJSONLineWriter(w io.Writer) *JSONLineWriter {
	return &JSONLineWriter{w: w}
}

// Name implements DetectionSink.
func (j *JSONLineWriter) Name() string { return "json" }

// WriteDetection implements DetectionSink.
func (j *JSONLineWriter) WriteDetection(_ context.Context, d Detection) error {
	return j.writeLine(d)
}

// WriteHeartbeat writes the liveness message.
func (j *JSONLineWriter) WriteHeartbeat(_ context.Context) error {
	return j.writeLine(heartbeat{Heartbeat: HeartbeatText})
}

func (j *JSONLineWriter) writeLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding line: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write(data); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}
