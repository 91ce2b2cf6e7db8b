package report

import (
	"context"
	"io"
	"sync"
)

// DefaultMeshQueue is the number of compact lines buffered for the radio.
const DefaultMeshQueue = 4

// MeshWriter forwards compact lines to a mesh radio's serial port.
//
// Lines are queued and written by Run. When the queue is full a new line is
// rejected with ErrNoRoom rather than waiting for the radio.
type MeshWriter struct {
	w         io.Writer
	queue     chan string
	done      chan struct{}
	closeOnce sync.Once
	logger    Logger
}

// NewMeshWriter creates a MeshWriter on w with room for queueDepth lines.
func NewMeshWriter(w io.Writer, queueDepth int) *MeshWriter {
	if queueDepth < 1 {
		queueDepth = DefaultMeshQueue
	}
	return &MeshWriter{
		w:      w,
		queue:  make(chan string, queueDepth),
		done:   make(chan struct{}),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for write failures.
func (m *MeshWriter) SetLogger(logger Logger) {
	m.logger = logger
}

// Name implements CompactSink.
func (m *MeshWriter) Name() string { return "mesh" }

// WriteCompact implements CompactSink.
func (m *MeshWriter) WriteCompact(_ context.Context, line string) error {
	select {
	case <-m.done:
		return ErrSinkClosed
	default:
	}

	select {
	case m.queue <- line:
		return nil
	default:
		return ErrNoRoom
	}
}

// Available returns the number of lines that can be queued right now.
func (m *MeshWriter) Available() int {
	return cap(m.queue) - len(m.queue)
}

// Run writes queued lines until ctx is cancelled or Close is called.
func (m *MeshWriter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case line := <-m.queue:
			if _, err := io.WriteString(m.w, line+"\n"); err != nil {
				m.logger.Warn("mesh write failed", "error", err)
			}
		}
	}
}

// Close stops Run and rejects further lines. Queued lines are discarded.
func (m *MeshWriter) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
}
