package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
)

var t0 = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

type recordingSink struct {
	name       string
	detections []Detection
	lines      []string
	err        error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) WriteDetection(_ context.Context, d Detection) error {
	if s.err != nil {
		return s.err
	}
	s.detections = append(s.detections, d)
	return nil
}

func (s *recordingSink) WriteCompact(_ context.Context, line string) error {
	if s.err != nil {
		return s.err
	}
	s.lines = append(s.lines, line)
	return nil
}

type mapAliases map[string]string

func (m mapAliases) Alias(mac string) (string, bool) {
	a, ok := m[mac]
	return a, ok
}

func addr(n byte) remoteid.Address {
	return remoteid.Address{0x60, 0x60, 0x1f, 0, 0, n}
}

func TestScheduler_SlotOrderAndDrain(t *testing.T) {
	reg := remoteid.NewRegistry(remoteid.DefaultCapacity)
	reg.Ingest(addr(1), remoteid.BasicID{UAVID: "one"}, -60, t0)
	reg.Ingest(addr(2), remoteid.BasicID{UAVID: "two"}, -61, t0)
	reg.Ingest(addr(1), remoteid.Location{Latitude: 1, Longitude: 2, AltitudeMSL: 50}, -59, t0)

	sink := &recordingSink{name: "rec"}
	s := NewScheduler(reg, SchedulerOptions{Detections: []DetectionSink{sink}})

	stats := s.Cycle(context.Background())
	if stats.Emitted != 2 || len(sink.detections) != 2 {
		t.Fatalf("Cycle() emitted %d, sink got %d, want 2", stats.Emitted, len(sink.detections))
	}
	if sink.detections[0].BasicID != "one" || sink.detections[1].BasicID != "two" {
		t.Errorf("order = %s, %s, want one, two", sink.detections[0].BasicID, sink.detections[1].BasicID)
	}
	if d := sink.detections[0]; d.DroneAltitude != 50 || d.RSSI != -59 || d.MAC != "60:60:1f:00:00:01" {
		t.Errorf("detection = %+v", d)
	}

	if stats := s.Cycle(context.Background()); stats.Emitted != 0 {
		t.Errorf("second Cycle() emitted %d, want 0", stats.Emitted)
	}
}

func TestScheduler_CompactChannelWideThrottle(t *testing.T) {
	clock := &fakeClock{now: t0}
	reg := remoteid.NewRegistry(remoteid.DefaultCapacity)
	compact := &recordingSink{name: "mesh"}
	s := NewScheduler(reg, SchedulerOptions{
		Compact:         []CompactSink{compact},
		CompactInterval: 5 * time.Second,
		Clock:           clock.Now,
	})

	for i := byte(1); i <= 3; i++ {
		reg.Ingest(addr(i), remoteid.Location{Latitude: 51, Longitude: -1}, -60, t0)
	}

	stats := s.Cycle(context.Background())
	if stats.Emitted != 3 {
		t.Errorf("Emitted = %d, want 3", stats.Emitted)
	}
	if stats.CompactSent != 1 || stats.CompactThrottled != 2 {
		t.Errorf("CompactSent = %d, CompactThrottled = %d, want 1, 2", stats.CompactSent, stats.CompactThrottled)
	}
	if len(compact.lines) != 1 || compact.lines[0] != "Drone: 60:60:1f:00:00:01 RSSI:-60 https://maps.google.com/?q=51.000000,-1.000000" {
		t.Errorf("lines = %q", compact.lines)
	}

	// Still inside the interval: device 2 updates but is starved.
	clock.Advance(3 * time.Second)
	reg.Ingest(addr(2), remoteid.Location{Latitude: 51, Longitude: -1}, -60, t0)
	if stats := s.Cycle(context.Background()); stats.CompactSent != 0 || stats.CompactThrottled != 1 {
		t.Errorf("inside interval stats = %+v", stats)
	}

	clock.Advance(2 * time.Second)
	reg.Ingest(addr(3), remoteid.Location{Latitude: 51, Longitude: -1}, -60, t0)
	if stats := s.Cycle(context.Background()); stats.CompactSent != 1 {
		t.Errorf("after interval CompactSent = %d, want 1", stats.CompactSent)
	}
}

func TestScheduler_CompactPilotLine(t *testing.T) {
	reg := remoteid.NewRegistry(remoteid.DefaultCapacity)
	reg.Ingest(addr(1), remoteid.System{OperatorLatitude: 51.5, OperatorLongitude: -0.1}, -70, t0)

	compact := &recordingSink{name: "mesh"}
	s := NewScheduler(reg, SchedulerOptions{Compact: []CompactSink{compact}})
	s.Cycle(context.Background())

	want := []string{
		"Drone: 60:60:1f:00:00:01 RSSI:-70",
		"Pilot: https://maps.google.com/?q=51.500000,-0.100000",
	}
	if len(compact.lines) != 2 || compact.lines[0] != want[0] || compact.lines[1] != want[1] {
		t.Errorf("lines = %q, want %q", compact.lines, want)
	}
}

func TestScheduler_PilotDelayCancelled(t *testing.T) {
	reg := remoteid.NewRegistry(remoteid.DefaultCapacity)
	reg.Ingest(addr(1), remoteid.System{OperatorLatitude: 51.5, OperatorLongitude: -0.1}, -70, t0)

	compact := &recordingSink{name: "mesh"}
	s := NewScheduler(reg, SchedulerOptions{Compact: []CompactSink{compact}, PilotDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Cycle(ctx)

	if len(compact.lines) != 1 {
		t.Errorf("lines = %q, want drone line only", compact.lines)
	}
}

func TestScheduler_SinkErrorsDoNotStopCycle(t *testing.T) {
	reg := remoteid.NewRegistry(remoteid.DefaultCapacity)
	reg.Ingest(addr(1), remoteid.BasicID{UAVID: "one"}, -60, t0)
	reg.Ingest(addr(2), remoteid.BasicID{UAVID: "two"}, -60, t0)

	bad := &recordingSink{name: "bad", err: errors.New("broker down")}
	good := &recordingSink{name: "good"}
	full := &recordingSink{name: "full", err: ErrNoRoom}
	s := NewScheduler(reg, SchedulerOptions{
		Detections: []DetectionSink{bad, good},
		Compact:    []CompactSink{full},
	})

	stats := s.Cycle(context.Background())
	if len(good.detections) != 2 {
		t.Errorf("good sink got %d detections, want 2", len(good.detections))
	}
	if stats.SinkErrors["bad"] != 2 {
		t.Errorf("SinkErrors[bad] = %d, want 2", stats.SinkErrors["bad"])
	}
	if stats.CompactNoRoom != 1 || stats.SinkErrors["full"] != 0 {
		t.Errorf("CompactNoRoom = %d, SinkErrors[full] = %d, want 1, 0", stats.CompactNoRoom, stats.SinkErrors["full"])
	}
}

func TestScheduler_Aliases(t *testing.T) {
	reg := remoteid.NewRegistry(remoteid.DefaultCapacity)
	reg.Ingest(addr(1), remoteid.BasicID{UAVID: "one"}, -60, t0)
	reg.Ingest(addr(2), remoteid.BasicID{UAVID: "two"}, -60, t0)

	sink := &recordingSink{name: "rec"}
	s := NewScheduler(reg, SchedulerOptions{
		Detections: []DetectionSink{sink},
		Aliases:    mapAliases{"60:60:1f:00:00:02": "Survey quad"},
	})
	s.Cycle(context.Background())

	if sink.detections[0].Alias != "" || sink.detections[1].Alias != "Survey quad" {
		t.Errorf("aliases = %q, %q", sink.detections[0].Alias, sink.detections[1].Alias)
	}
}
