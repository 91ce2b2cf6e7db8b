package remoteid

// Kind is a message block's type tag, the high nibble of its first byte.
type Kind uint8

// Recognised message kinds.
const (
	KindBasicID    Kind = 0x00
	KindLocation   Kind = 0x10
	KindSystem     Kind = 0x40
	KindOperatorID Kind = 0x50
)

const kindMask = 0xF0

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindBasicID:
		return "basic_id"
	case KindLocation:
		return "location"
	case KindSystem:
		return "system"
	case KindOperatorID:
		return "operator_id"
	default:
		return "unknown"
	}
}

// Message is a decoded message block. It is one of BasicID, Location,
// System or OperatorID.
type Message interface {
	Kind() Kind
}

// BasicID carries the aircraft identifier.
type BasicID struct {
	UAVID string
}

// Location carries the aircraft position. Altitude, height, speed and
// heading are truncated to whole units.
type Location struct {
	Latitude    float64
	Longitude   float64
	AltitudeMSL int32
	HeightAGL   int32
	Speed       int32
	Heading     int32
}

// System carries the operator position.
type System struct {
	OperatorLatitude  float64
	OperatorLongitude float64
}

// OperatorID carries the operator registration.
type OperatorID struct {
	OperatorID string
}

// Kind implements Message.
func (BasicID) Kind() Kind { return KindBasicID }

// Kind implements Message.
func (Location) Kind() Kind { return KindLocation }

// Kind implements Message.
func (System) Kind() Kind { return KindSystem }

// Kind implements Message.
func (OperatorID) Kind() Kind { return KindOperatorID }
