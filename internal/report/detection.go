package report

import (
	"fmt"
	"time"

	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
)

// Detection is the structured event emitted for one updated record.
//
// The first eight fields are the sensor's line format read by host-side
// mappers. The rest are omitted when empty.
type Detection struct {
	MAC           string  `json:"mac"`
	RSSI          int     `json:"rssi"`
	DroneLat      float64 `json:"drone_lat"`
	DroneLong     float64 `json:"drone_long"`
	DroneAltitude int32   `json:"drone_altitude"`
	PilotLat      float64 `json:"pilot_lat"`
	PilotLong     float64 `json:"pilot_long"`
	BasicID       string  `json:"basic_id"`

	OperatorID string `json:"operator_id,omitempty"`
	HeightAGL  int32  `json:"height_agl,omitempty"`
	Speed      int32  `json:"speed,omitempty"`
	Heading    int32  `json:"heading,omitempty"`
	Alias      string `json:"alias,omitempty"`

	LastSeen time.Time `json:"-"`
}

// NewDetection builds a Detection from a record snapshot.
func NewDetection(rec remoteid.DeviceRecord) Detection {
	return Detection{
		MAC:           rec.Address.String(),
		RSSI:          rec.RSSI,
		DroneLat:      rec.Latitude,
		DroneLong:     rec.Longitude,
		DroneAltitude: rec.AltitudeMSL,
		PilotLat:      rec.OperatorLatitude,
		PilotLong:     rec.OperatorLongitude,
		BasicID:       rec.UAVID,
		OperatorID:    rec.OperatorID,
		HeightAGL:     rec.HeightAGL,
		Speed:         rec.Speed,
		Heading:       rec.Heading,
		LastSeen:      rec.LastSeen,
	}
}

// HasPosition reports whether both drone coordinates are non-zero.
func (d Detection) HasPosition() bool {
	return d.DroneLat != 0 && d.DroneLong != 0
}

// HasPilotPosition reports whether both pilot coordinates are non-zero.
func (d Detection) HasPilotPosition() bool {
	return d.PilotLat != 0 && d.PilotLong != 0
}

const mapLinkFormat = "https://maps.google.com/?q=%.6f,%.6f"

// DroneLine formats the compact drone report. The map link is included only
// when the drone position is set. The line is cut to maxLen bytes.
func (d Detection) DroneLine(maxLen int) string {
	line := fmt.Sprintf("Drone: %s RSSI:%d", d.MAC, d.RSSI)
	if d.HasPosition() {
		line += " " + fmt.Sprintf(mapLinkFormat, d.DroneLat, d.DroneLong)
	}
	return clip(line, maxLen)
}

// PilotLine formats the compact pilot report. It returns false when the
// pilot position is not set.
func (d Detection) PilotLine(maxLen int) (string, bool) {
	if !d.HasPilotPosition() {
		return "", false
	}
	return clip("Pilot: "+fmt.Sprintf(mapLinkFormat, d.PilotLat, d.PilotLong), maxLen), true
}

func clip(s string, maxLen int) string {
	if maxLen > 0 && len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}
