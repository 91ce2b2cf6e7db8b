package pipeline

import (
	"testing"
	"time"

	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
	"github.com/nerrad567/remoteid-mesh/internal/report"
)

func gatheredNames(t *testing.T, m *Metrics) map[string]bool {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestMetrics_ObserveAdvert(t *testing.T) {
	m := NewMetrics()

	m.ObserveAdvert(remoteid.Result{Outcome: remoteid.OutcomeMerged})
	m.ObserveAdvert(remoteid.Result{
		Outcome:    remoteid.OutcomeMerged,
		Resolution: remoteid.Resolution{Evicted: remoteid.Address{1, 2, 3, 4, 5, 6}},
	})
	m.ObserveAdvert(remoteid.Result{Outcome: remoteid.OutcomeUnknownTag})
	m.ObserveAdvert(remoteid.Result{Outcome: remoteid.OutcomeDecodeFailed})

	totals := m.Totals()
	want := map[string]uint64{"merged": 2, "no_signature": 0, "unknown_tag": 1, "decode_failed": 1}
	for outcome, n := range want {
		if totals.Adverts[outcome] != n {
			t.Errorf("Adverts[%s] = %d, want %d", outcome, totals.Adverts[outcome], n)
		}
	}
	if totals.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", totals.Evictions)
	}

	names := gatheredNames(t, m)
	for _, name := range []string{"remoteid_adverts_processed_total", "remoteid_registry_evictions_total", "go_goroutines"} {
		if !names[name] {
			t.Errorf("metric %s not gathered", name)
		}
	}
}

func TestMetrics_ObserveCycle(t *testing.T) {
	m := NewMetrics()

	m.ObserveCycle(report.CycleStats{
		Emitted:          3,
		CompactSent:      2,
		CompactThrottled: 1,
		CompactNoRoom:    1,
		SinkErrors:       map[string]int{"mqtt": 2},
	}, 5*time.Millisecond, 3)

	totals := m.Totals()
	if totals.Cycles != 1 || totals.Emitted != 3 || totals.SinkErrors != 2 {
		t.Errorf("Totals = %+v", totals)
	}
	if totals.CompactSent != 2 || totals.CompactThrottled != 1 || totals.CompactNoRoom != 1 {
		t.Errorf("compact totals = %+v", totals)
	}
	if m.Occupied() != 3 {
		t.Errorf("Occupied() = %d, want 3", m.Occupied())
	}

	counters := totals.Counters()
	if counters["emitted"] != 3 || counters["adverts_merged"] != 0 {
		t.Errorf("Counters() = %v", counters)
	}
}

func TestMetrics_RegisterSource(t *testing.T) {
	m := NewMetrics()

	if err := m.RegisterSource(&sliceSource{adverts: make([]remoteid.RawAdvertisement, 4)}); err != nil {
		t.Fatalf("RegisterSource() error = %v", err)
	}
	if err := m.RegisterSource(&sliceSource{}); err == nil {
		t.Error("RegisterSource() twice with the same name should fail")
	}

	if !gatheredNames(t, m)["remoteid_source_received_total"] {
		t.Error("remoteid_source_received_total not gathered")
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAdvert(remoteid.Result{})
	m.ObserveCycle(report.CycleStats{}, time.Millisecond, 0)
}
