package report

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
)

// Defaults for the compact channel.
const (
	DefaultCompactInterval = 5 * time.Second
	DefaultMaxMessageSize  = 230
)

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	// Detections receive every structured event.
	Detections []DetectionSink

	// Compact receive compact lines, subject to the channel throttle.
	Compact []CompactSink

	// CompactInterval is the minimum spacing of compact reports across
	// all devices. Defaults to DefaultCompactInterval.
	CompactInterval time.Duration

	// MaxMessageSize bounds a compact line including its terminator.
	// Defaults to DefaultMaxMessageSize.
	MaxMessageSize int

	// PilotDelay separates a drone line from its pilot line.
	PilotDelay time.Duration

	// Aliases, when set, adds operator-assigned names to detections.
	Aliases AliasLookup

	// Clock drives the compact throttle. Defaults to time.Now.
	Clock func() time.Time

	Logger Logger
}

// CycleStats summarises one report cycle.
type CycleStats struct {
	// Emitted is the number of records drained.
	Emitted int

	// CompactSent counts drone and pilot lines accepted by compact sinks.
	CompactSent int

	// CompactThrottled counts records denied a compact report by the throttle.
	CompactThrottled int

	// CompactNoRoom counts lines dropped because a sink was full.
	CompactNoRoom int

	// SinkErrors counts failed writes per sink name.
	SinkErrors map[string]int
}

// Scheduler drains the registry and fans detections out to sinks.
type Scheduler struct {
	registry *remoteid.Registry
	opts     SchedulerOptions
	throttle *Throttle
	logger   Logger
}

// NewScheduler creates a Scheduler reading from registry.
func NewScheduler(registry *remoteid.Registry, opts SchedulerOptions) *Scheduler {
	if opts.CompactInterval <= 0 {
		opts.CompactInterval = DefaultCompactInterval
	}
	if opts.MaxMessageSize <= 1 {
		opts.MaxMessageSize = DefaultMaxMessageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Scheduler{
		registry: registry,
		opts:     opts,
		throttle: NewThrottle(opts.CompactInterval, opts.Clock),
		logger:   logger,
	}
}

// Cycle reports every record updated since the previous cycle, in slot
// order. Sink failures are counted and logged; they never stop the cycle.
func (s *Scheduler) Cycle(ctx context.Context) CycleStats {
	stats := CycleStats{SinkErrors: make(map[string]int)}

	stats.Emitted = s.registry.Drain(func(rec remoteid.DeviceRecord) {
		d := NewDetection(rec)
		if s.opts.Aliases != nil {
			if alias, ok := s.opts.Aliases.Alias(d.MAC); ok {
				d.Alias = alias
			}
		}

		for _, sink := range s.opts.Detections {
			if err := sink.WriteDetection(ctx, d); err != nil {
				stats.SinkErrors[sink.Name()]++
				s.logger.Warn("detection sink failed", "sink", sink.Name(), "mac", d.MAC, "error", err)
			}
		}

		if len(s.opts.Compact) > 0 {
			s.reportCompact(ctx, d, &stats)
		}
	})

	return stats
}

// reportCompact sends the drone line and, when the pilot position is known,
// the pilot line. The throttle is shared by every device.
func (s *Scheduler) reportCompact(ctx context.Context, d Detection, stats *CycleStats) {
	if !s.throttle.Allow() {
		stats.CompactThrottled++
		return
	}

	maxLen := s.opts.MaxMessageSize - 1
	s.writeCompact(ctx, d.DroneLine(maxLen), stats)

	pilot, ok := d.PilotLine(maxLen)
	if !ok {
		return
	}
	if s.opts.PilotDelay > 0 {
		timer := time.NewTimer(s.opts.PilotDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
	s.writeCompact(ctx, pilot, stats)
}

func (s *Scheduler) writeCompact(ctx context.Context, line string, stats *CycleStats) {
	for _, sink := range s.opts.Compact {
		err := sink.WriteCompact(ctx, line)
		switch {
		case err == nil:
			stats.CompactSent++
		case errors.Is(err, ErrNoRoom):
			stats.CompactNoRoom++
			s.logger.Debug("compact line dropped", "sink", sink.Name())
		default:
			stats.SinkErrors[sink.Name()]++
			s.logger.Warn("compact sink failed", "sink", sink.Name(), "error", err)
		}
	}
}
