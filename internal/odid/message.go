package odid

// MessageSize is the length of every encoded F3411 message.
const MessageSize = 25

// IDSize is the capacity of the UAS ID and operator ID string fields.
const IDSize = 20

// ProtocolVersion is written into the header of encoded messages.
const ProtocolVersion = 2

// MessageType is the high nibble of a message header.
type MessageType uint8

// Message types defined by F3411.
const (
	MessageTypeBasicID     MessageType = 0x0
	MessageTypeLocation    MessageType = 0x1
	MessageTypeAuth        MessageType = 0x2
	MessageTypeSelfID      MessageType = 0x3
	MessageTypeSystem      MessageType = 0x4
	MessageTypeOperatorID  MessageType = 0x5
	MessageTypeMessagePack MessageType = 0xF
)

const messageTypeShift = 4

// IDType describes what a BasicID UAS ID contains.
type IDType uint8

// ID types.
const (
	IDTypeNone            IDType = 0
	IDTypeSerialNumber    IDType = 1
	IDTypeCAARegistration IDType = 2
	IDTypeUTMAssigned     IDType = 3
	IDTypeSpecificSession IDType = 4
)

// UAType is the airframe category in a BasicID message.
type UAType uint8

// A subset of UA types; values up to 15 are carried through unchanged.
const (
	UATypeNone       UAType = 0
	UATypeAeroplane  UAType = 1
	UATypeRotorcraft UAType = 2
	UATypeGyroplane  UAType = 3
	UATypeHybridLift UAType = 4
	UATypeOther      UAType = 15
)

// Status is the operational status in a Location message.
type Status uint8

// Operational status values.
const (
	StatusUndeclared Status = 0
	StatusGround     Status = 1
	StatusAirborne   Status = 2
	StatusEmergency  Status = 3
)

// HeightReference tells what a Location height is measured from.
type HeightReference uint8

// Height references.
const (
	HeightAboveTakeoff HeightReference = 0
	HeightAboveGround  HeightReference = 1
)

// OperatorLocationType tells where a System message's operator position came from.
type OperatorLocationType uint8

// Operator location types.
const (
	OperatorLocationTakeoff  OperatorLocationType = 0
	OperatorLocationLiveGNSS OperatorLocationType = 1
	OperatorLocationFixed    OperatorLocationType = 2
)

// BasicID identifies the aircraft.
type BasicID struct {
	IDType IDType
	UAType UAType
	UASID  string
}

// Location is the aircraft's dynamic state.
//
// Altitudes and height are metres, speeds metres per second, direction
// degrees clockwise from true north. Timestamp is tenths of a second since
// the start of the current hour.
type Location struct {
	Status          Status
	HeightType      HeightReference
	Direction       float32
	SpeedHorizontal float32
	SpeedVertical   float32
	Latitude        float64
	Longitude       float64
	AltitudeBaro    float32
	AltitudeGeo     float32
	Height          float32
	HorizAccuracy   uint8
	VertAccuracy    uint8
	BaroAccuracy    uint8
	SpeedAccuracy   uint8
	Timestamp       uint16
	TSAccuracy      uint8
}

// System describes the operator position and the operating area.
type System struct {
	OperatorLocationType OperatorLocationType
	ClassificationType   uint8
	OperatorLatitude     float64
	OperatorLongitude    float64
	AreaCount            uint16
	AreaRadius           uint16
	AreaCeiling          float32
	AreaFloor            float32
	CategoryEU           uint8
	ClassEU              uint8
	OperatorAltitudeGeo  float32

	// Timestamp is seconds since 2019-01-01T00:00:00Z.
	Timestamp uint32
}

// OperatorID carries the operator registration number.
type OperatorID struct {
	OperatorIDType uint8
	OperatorID     string
}

// TypeOf returns the message type encoded in a block's header.
// It returns false for an empty block.
func TypeOf(block []byte) (MessageType, bool) {
	if len(block) == 0 {
		return 0, false
	}
	return MessageType(block[0] >> messageTypeShift), true
}
