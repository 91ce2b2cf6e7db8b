package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
	"github.com/nerrad567/remoteid-mesh/internal/report"
	"github.com/nerrad567/remoteid-mesh/internal/scanner"
)

// Defaults applied by New.
const (
	DefaultWindow = time.Second
	DefaultBuffer = 256

	// sourceStopGrace bounds the wait for a source blocked in a read that
	// cancellation cannot interrupt, such as stdin.
	sourceStopGrace = 2 * time.Second
)

// ErrMissingComponent is returned by New when a required component is nil.
var ErrMissingComponent = errors.New("pipeline: missing component")

// Logger defines the logging interface used by the pipeline.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Health is the document handed to heartbeat receivers.
type Health struct {
	Status    string `json:"status"`
	SensorID  string `json:"sensor_id"`
	SessionID string `json:"session_id"`
	Source    string `json:"source"`
	Uptime    string `json:"uptime"`
	Occupied  int    `json:"occupied"`
	Capacity  int    `json:"capacity"`
	Totals    Totals `json:"totals"`
	Timestamp string `json:"timestamp"`
}

// HeartbeatFunc receives each heartbeat. Errors are logged and counted
// but never stop the pipeline.
type HeartbeatFunc func(ctx context.Context, h Health) error

// Options configures a Pipeline.
type Options struct {
	Source    scanner.Source
	Processor *remoteid.Processor
	Scheduler *report.Scheduler

	// Window is the length of each scan phase. Defaults to DefaultWindow.
	Window time.Duration

	// Buffer is the capacity of the channel between source and pipeline.
	Buffer int

	// HeartbeatInterval enables heartbeats when positive.
	HeartbeatInterval time.Duration
	Heartbeats        []HeartbeatFunc

	SensorID  string
	SessionID string

	// Metrics is optional.
	Metrics *Metrics
	Logger  Logger
}

// Pipeline alternates scan and report phases until its context ends or
// the source runs dry.
type Pipeline struct {
	opts    Options
	started time.Time
	running atomic.Bool
}

// New validates opts and returns a Pipeline.
func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Source == nil:
		return nil, fmt.Errorf("%w: source", ErrMissingComponent)
	case opts.Processor == nil:
		return nil, fmt.Errorf("%w: processor", ErrMissingComponent)
	case opts.Scheduler == nil:
		return nil, fmt.Errorf("%w: scheduler", ErrMissingComponent)
	}

	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	return &Pipeline{opts: opts, started: time.Now()}, nil
}

// Running reports whether Run is active.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Started returns when the pipeline was created.
func (p *Pipeline) Started() time.Time {
	return p.started
}

// Run drives the cycle. It returns nil when ctx is cancelled, or the
// source's error (nil at end of input) once the source has stopped and a
// final report cycle has flushed what it delivered.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return errors.New("pipeline: already running")
	}
	defer p.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	adverts := make(chan remoteid.RawAdvertisement, p.opts.Buffer)
	srcDone := make(chan error, 1)
	go func() {
		err := p.opts.Source.Run(ctx, adverts)
		close(adverts)
		srcDone <- err
	}()

	var heartbeat <-chan time.Time
	if p.opts.HeartbeatInterval > 0 && len(p.opts.Heartbeats) > 0 {
		ticker := time.NewTicker(p.opts.HeartbeatInterval)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	p.opts.Logger.Info("pipeline started",
		"source", p.opts.Source.Name(),
		"window", p.opts.Window,
		"capacity", p.opts.Processor.Registry().Capacity(),
	)

	for {
		open := p.scan(ctx, adverts, heartbeat)
		if ctx.Err() != nil {
			select {
			case <-srcDone:
			case <-time.After(sourceStopGrace):
				p.opts.Logger.Warn("source did not stop in time", "source", p.opts.Source.Name())
			}
			p.opts.Logger.Info("pipeline stopped")
			return nil
		}

		p.report(ctx)

		if !open {
			err := <-srcDone
			p.opts.Logger.Info("source finished", "source", p.opts.Source.Name(), "error", err)
			return err
		}
	}
}

// scan feeds advertisements to the processor for one window. It returns
// false once the source has closed the channel.
func (p *Pipeline) scan(ctx context.Context, adverts <-chan remoteid.RawAdvertisement, heartbeat <-chan time.Time) bool {
	window := time.NewTimer(p.opts.Window)
	defer window.Stop()

	for {
		select {
		case <-ctx.Done():
			return true
		case <-window.C:
			return true
		case <-heartbeat:
			p.beat(ctx)
		case adv, ok := <-adverts:
			if !ok {
				return false
			}
			p.process(adv)
		}
	}
}

func (p *Pipeline) process(adv remoteid.RawAdvertisement) {
	res := p.opts.Processor.Process(adv)
	p.opts.Metrics.ObserveAdvert(res)

	if res.Resolution.Stolen() {
		p.opts.Logger.Debug("slot stolen",
			"address", adv.Address.String(),
			"evicted", res.Resolution.Evicted.String(),
		)
	}
}

func (p *Pipeline) report(ctx context.Context) {
	start := time.Now()
	stats := p.opts.Scheduler.Cycle(ctx)
	occupied := p.opts.Processor.Registry().Occupied()
	p.opts.Metrics.ObserveCycle(stats, time.Since(start), occupied)

	if stats.Emitted > 0 {
		p.opts.Logger.Debug("report cycle",
			"emitted", stats.Emitted,
			"compact_sent", stats.CompactSent,
			"compact_throttled", stats.CompactThrottled,
			"compact_no_room", stats.CompactNoRoom,
		)
	}
}

// Health builds the current health document.
func (p *Pipeline) Health() Health {
	h := Health{
		Status:    "running",
		SensorID:  p.opts.SensorID,
		SessionID: p.opts.SessionID,
		Source:    p.opts.Source.Name(),
		Uptime:    time.Since(p.started).Round(time.Second).String(),
		Occupied:  p.opts.Processor.Registry().Occupied(),
		Capacity:  p.opts.Processor.Registry().Capacity(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if p.opts.Metrics != nil {
		h.Totals = p.opts.Metrics.Totals()
	}
	return h
}

func (p *Pipeline) beat(ctx context.Context) {
	h := p.Health()
	for i, fn := range p.opts.Heartbeats {
		if err := fn(ctx, h); err != nil {
			p.opts.Logger.Warn("heartbeat failed", "receiver", i, "error", err)
		}
	}
}
