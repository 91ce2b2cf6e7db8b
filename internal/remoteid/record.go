package remoteid

import (
	"time"
	"unicode/utf8"

	"github.com/nerrad567/remoteid-mesh/internal/odid"
)

// IDCapacity is the longest UAV or operator identifier a record stores.
const IDCapacity = odid.IDSize

// DeviceRecord is the accumulated state of one transmitting device.
//
// Numeric fields stay zero until a message carrying them arrives, so a zero
// latitude is indistinguishable from "no Location received yet".
type DeviceRecord struct {
	Address  Address
	LastSeen time.Time
	RSSI     int

	UAVID      string
	OperatorID string

	Latitude    float64
	Longitude   float64
	AltitudeMSL int32
	HeightAGL   int32
	Speed       int32
	Heading     int32

	OperatorLatitude  float64
	OperatorLongitude float64
}

// HasPosition reports whether both aircraft coordinates are non-zero.
func (r DeviceRecord) HasPosition() bool {
	return r.Latitude != 0 && r.Longitude != 0
}

// HasOperatorPosition reports whether both operator coordinates are non-zero.
func (r DeviceRecord) HasOperatorPosition() bool {
	return r.OperatorLatitude != 0 && r.OperatorLongitude != 0
}

// apply merges the fields carried by msg. Fields of other kinds are kept.
func (r *DeviceRecord) apply(msg Message) {
	switch m := msg.(type) {
	case BasicID:
		r.UAVID = truncateID(m.UAVID)
	case Location:
		r.Latitude = m.Latitude
		r.Longitude = m.Longitude
		r.AltitudeMSL = m.AltitudeMSL
		r.HeightAGL = m.HeightAGL
		r.Speed = m.Speed
		r.Heading = m.Heading
	case System:
		r.OperatorLatitude = m.OperatorLatitude
		r.OperatorLongitude = m.OperatorLongitude
	case OperatorID:
		r.OperatorID = truncateID(m.OperatorID)
	}
}

// truncateID cuts s to IDCapacity bytes without splitting a UTF-8 sequence.
func truncateID(s string) string {
	if len(s) <= IDCapacity {
		return s
	}
	cut := IDCapacity
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
