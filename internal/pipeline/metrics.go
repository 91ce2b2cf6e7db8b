package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
	"github.com/nerrad567/remoteid-mesh/internal/report"
	"github.com/nerrad567/remoteid-mesh/internal/scanner"
)

const metricsNamespace = "remoteid"

// Totals is a point-in-time copy of the running counters.
type Totals struct {
	Adverts          map[string]uint64 `json:"adverts"`
	Evictions        uint64            `json:"evictions"`
	Cycles           uint64            `json:"cycles"`
	Emitted          uint64            `json:"emitted"`
	CompactSent      uint64            `json:"compact_sent"`
	CompactThrottled uint64            `json:"compact_throttled"`
	CompactNoRoom    uint64            `json:"compact_no_room"`
	SinkErrors       uint64            `json:"sink_errors"`
}

// Metrics holds the Prometheus collectors for the pipeline along with
// plain totals the status endpoint and heartbeat report.
type Metrics struct {
	registry *prometheus.Registry

	adverts       *prometheus.CounterVec // by outcome
	evictions     prometheus.Counter
	cycles        prometheus.Counter
	cycleDuration prometheus.Histogram
	emitted       prometheus.Counter
	compact       *prometheus.CounterVec // by result: sent, throttled, no_room
	sinkErrors    *prometheus.CounterVec // by sink
	occupied      prometheus.Gauge

	outcomes         [4]atomic.Uint64
	evictionTotal    atomic.Uint64
	cycleTotal       atomic.Uint64
	emittedTotal     atomic.Uint64
	sentTotal        atomic.Uint64
	throttledTotal   atomic.Uint64
	noRoomTotal      atomic.Uint64
	sinkErrorTotal   atomic.Uint64
	occupiedSnapshot atomic.Int64
}

// NewMetrics creates the pipeline collectors on a fresh registry, together
// with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		adverts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "adverts",
			Name:      "processed_total",
			Help:      "Advertisements processed, by outcome",
		}, []string{"outcome"}),

		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "registry",
			Name:      "evictions_total",
			Help:      "Registry slots stolen from a tracked device",
		}),

		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "report",
			Name:      "cycles_total",
			Help:      "Report cycles run",
		}),

		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "report",
			Name:      "cycle_duration_seconds",
			Help:      "Report cycle duration in seconds, including pilot delays",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
		}),

		emitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "report",
			Name:      "detections_total",
			Help:      "Detection events emitted",
		}),

		compact: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "report",
			Name:      "compact_total",
			Help:      "Compact report attempts, by result",
		}, []string{"result"}), // result: sent, throttled, no_room

		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "report",
			Name:      "sink_errors_total",
			Help:      "Failed sink writes, by sink",
		}, []string{"sink"}),

		occupied: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "registry",
			Name:      "occupied_slots",
			Help:      "Registry slots currently holding a device",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.adverts, m.evictions, m.cycles, m.cycleDuration,
		m.emitted, m.compact, m.sinkErrors, m.occupied,
	)

	return m
}

// Registry returns the Prometheus registry to expose on /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterSource exposes a source's counters as Prometheus counters.
func (m *Metrics) RegisterSource(src scanner.Source) error {
	labels := prometheus.Labels{"source": src.Name()}
	counter := func(name, help string, value func(scanner.Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   "source",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(value(src.Stats())) })
	}

	for _, c := range []prometheus.Collector{
		counter("received_total", "Records received from the source", func(s scanner.Stats) uint64 { return s.Received }),
		counter("invalid_total", "Records that failed to parse", func(s scanner.Stats) uint64 { return s.Invalid }),
		counter("dropped_total", "Records dropped because the pipeline was full", func(s scanner.Stats) uint64 { return s.Dropped }),
	} {
		if err := m.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveAdvert records the result of processing one advertisement.
func (m *Metrics) ObserveAdvert(res remoteid.Result) {
	if m == nil {
		return
	}

	m.adverts.WithLabelValues(res.Outcome.String()).Inc()
	if int(res.Outcome) < len(m.outcomes) {
		m.outcomes[res.Outcome].Add(1)
	}
	if res.Resolution.Stolen() {
		m.evictions.Inc()
		m.evictionTotal.Add(1)
	}
}

// ObserveCycle records one report cycle and the registry occupancy after it.
func (m *Metrics) ObserveCycle(stats report.CycleStats, took time.Duration, occupied int) {
	if m == nil {
		return
	}

	m.cycles.Inc()
	m.cycleTotal.Add(1)
	m.cycleDuration.Observe(took.Seconds())

	m.emitted.Add(float64(stats.Emitted))
	m.emittedTotal.Add(uint64(stats.Emitted)) //nolint:gosec // counts are non-negative

	m.compact.WithLabelValues("sent").Add(float64(stats.CompactSent))
	m.compact.WithLabelValues("throttled").Add(float64(stats.CompactThrottled))
	m.compact.WithLabelValues("no_room").Add(float64(stats.CompactNoRoom))
	m.sentTotal.Add(uint64(stats.CompactSent))           //nolint:gosec // counts are non-negative
	m.throttledTotal.Add(uint64(stats.CompactThrottled)) //nolint:gosec // counts are non-negative
	m.noRoomTotal.Add(uint64(stats.CompactNoRoom))       //nolint:gosec // counts are non-negative

	for sink, n := range stats.SinkErrors {
		m.sinkErrors.WithLabelValues(sink).Add(float64(n))
		m.sinkErrorTotal.Add(uint64(n)) //nolint:gosec // counts are non-negative
	}

	m.occupied.Set(float64(occupied))
	m.occupiedSnapshot.Store(int64(occupied))
}

// Occupied returns the occupancy recorded by the last cycle.
func (m *Metrics) Occupied() int {
	return int(m.occupiedSnapshot.Load())
}

// Totals returns a copy of the running counters.
func (m *Metrics) Totals() Totals {
	t := Totals{
		Adverts:          make(map[string]uint64, len(m.outcomes)),
		Evictions:        m.evictionTotal.Load(),
		Cycles:           m.cycleTotal.Load(),
		Emitted:          m.emittedTotal.Load(),
		CompactSent:      m.sentTotal.Load(),
		CompactThrottled: m.throttledTotal.Load(),
		CompactNoRoom:    m.noRoomTotal.Load(),
		SinkErrors:       m.sinkErrorTotal.Load(),
	}
	for i := range m.outcomes {
		t.Adverts[remoteid.Outcome(i).String()] = m.outcomes[i].Load()
	}
	return t
}

// Counters flattens Totals for time-series storage.
func (t Totals) Counters() map[string]int64 {
	out := map[string]int64{
		"evictions":         int64(t.Evictions),        //nolint:gosec // counters stay far below MaxInt64
		"cycles":            int64(t.Cycles),           //nolint:gosec // counters stay far below MaxInt64
		"emitted":           int64(t.Emitted),          //nolint:gosec // counters stay far below MaxInt64
		"compact_sent":      int64(t.CompactSent),      //nolint:gosec // counters stay far below MaxInt64
		"compact_throttled": int64(t.CompactThrottled), //nolint:gosec // counters stay far below MaxInt64
		"compact_no_room":   int64(t.CompactNoRoom),    //nolint:gosec // counters stay far below MaxInt64
		"sink_errors":       int64(t.SinkErrors),       //nolint:gosec // counters stay far below MaxInt64
	}
	for outcome, n := range t.Adverts {
		out["adverts_"+outcome] = int64(n) //nolint:gosec // counters stay far below MaxInt64
	}
	return out
}
