package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
)

func testRecord() remoteid.DeviceRecord {
	return remoteid.DeviceRecord{
		Address:           remoteid.Address{0x60, 0x60, 0x1f, 0xaa, 0xbb, 0xcc},
		LastSeen:          time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
		RSSI:              -67,
		UAVID:             "1581F5FJD229400B",
		Latitude:          51.501364,
		Longitude:         -0.14189,
		AltitudeMSL:       120,
		OperatorLatitude:  51.5,
		OperatorLongitude: -0.142,
	}
}

func TestNewDetection_JSON(t *testing.T) {
	data, err := json.Marshal(NewDetection(testRecord()))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"mac":"60:60:1f:aa:bb:cc","rssi":-67,"drone_lat":51.501364,"drone_long":-0.14189,` +
		`"drone_altitude":120,"pilot_lat":51.5,"pilot_long":-0.142,"basic_id":"1581F5FJD229400B"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s\nwant %s", data, want)
	}
}

func TestNewDetection_EmptyRecordKeepsCoreFields(t *testing.T) {
	data, err := json.Marshal(NewDetection(remoteid.DeviceRecord{Address: remoteid.Address{1}}))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"mac", "rssi", "drone_lat", "drone_long", "drone_altitude", "pilot_lat", "pilot_long", "basic_id"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if _, ok := fields["alias"]; ok {
		t.Error("empty alias should be omitted")
	}
}

func TestDetection_DroneLine(t *testing.T) {
	d := NewDetection(testRecord())
	want := "Drone: 60:60:1f:aa:bb:cc RSSI:-67 https://maps.google.com/?q=51.501364,-0.141890"
	if got := d.DroneLine(229); got != want {
		t.Errorf("DroneLine() = %q, want %q", got, want)
	}
}

func TestDetection_ZeroCoordinatesOmitLink(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"both zero", 0, 0},
		{"latitude zero", 0, -0.1},
		{"longitude zero", 51.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecord()
			rec.Latitude, rec.Longitude = tt.lat, tt.lon
			rec.OperatorLatitude, rec.OperatorLongitude = tt.lat, tt.lon
			d := NewDetection(rec)

			if got := d.DroneLine(229); got != "Drone: 60:60:1f:aa:bb:cc RSSI:-67" {
				t.Errorf("DroneLine() = %q, want no link", got)
			}
			if line, ok := d.PilotLine(229); ok {
				t.Errorf("PilotLine() = %q, true, want omitted", line)
			}
		})
	}
}

func TestDetection_PilotLine(t *testing.T) {
	line, ok := NewDetection(testRecord()).PilotLine(229)
	if !ok {
		t.Fatal("PilotLine() ok = false")
	}
	if line != "Pilot: https://maps.google.com/?q=51.500000,-0.142000" {
		t.Errorf("PilotLine() = %q", line)
	}
}

func TestDetection_LineClipped(t *testing.T) {
	d := NewDetection(testRecord())
	if got := d.DroneLine(20); len(got) != 20 || !strings.HasPrefix(got, "Drone: 60:60") {
		t.Errorf("DroneLine(20) = %q", got)
	}
}
