package scanner

import (
	"context"
	"sync/atomic"

	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
)

// Source delivers advertisements until ctx is cancelled or its input ends.
// Run returns nil when the input ends normally.
type Source interface {
	Name() string
	Run(ctx context.Context, out chan<- remoteid.RawAdvertisement) error
	Stats() Stats
}

// Stats counts what a source has seen.
type Stats struct {
	Received uint64
	Invalid  uint64
	Dropped  uint64
}

// Logger defines the logging interface used by sources.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

type counters struct {
	received atomic.Uint64
	invalid  atomic.Uint64
	dropped  atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Received: c.received.Load(),
		Invalid:  c.invalid.Load(),
		Dropped:  c.dropped.Load(),
	}
}
