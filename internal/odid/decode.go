package odid

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Scaling factors from F3411 Table 6 and 7.
const (
	latLonMultiplier    = 1e-7
	altitudeOffset      = 1000
	altitudeResolution  = 0.5
	speedLowResolution  = 0.25
	speedHighResolution = 0.75
	speedHighBase       = 255 * speedLowResolution
	verticalResolution  = 0.5
	directionEastOffset = 180
	areaRadiusScale     = 10
)

// DecodeBasicID decodes a BasicID message block.
//
// Byte layout (after the header byte):
//
//	Byte 1:     IDType (high nibble) | UAType (low nibble)
//	Byte 2-21:  UAS ID, NUL padded
//
// Returns:
//   - BasicID: Decoded identity
//   - error: ErrShortMessage or ErrWrongMessageType
func DecodeBasicID(block []byte) (BasicID, error) {
	if err := checkBlock(block, MessageTypeBasicID); err != nil {
		return BasicID{}, err
	}

	return BasicID{
		IDType: IDType(block[1] >> 4), //nolint:mnd // nibble
		UAType: UAType(block[1] & 0x0F),
		UASID:  decodeString(block[2 : 2+IDSize]),
	}, nil
}

// DecodeLocation decodes a Location/Vector message block.
//
// Byte layout (after the header byte):
//
//	Byte 1:     Status (bits 7-4) | HeightType (bit 2) | EW direction (bit 1) | speed multiplier (bit 0)
//	Byte 2:     Direction
//	Byte 3:     Horizontal speed
//	Byte 4:     Vertical speed (signed)
//	Byte 5-8:   Latitude (int32, 1e-7 degrees)
//	Byte 9-12:  Longitude (int32, 1e-7 degrees)
//	Byte 13-14: Pressure altitude
//	Byte 15-16: Geodetic altitude
//	Byte 17-18: Height
//	Byte 19:    Vertical accuracy (high nibble) | horizontal accuracy (low nibble)
//	Byte 20:    Baro accuracy (high nibble) | speed accuracy (low nibble)
//	Byte 21-22: Timestamp
//	Byte 23:    Timestamp accuracy (low nibble)
func DecodeLocation(block []byte) (Location, error) {
	if err := checkBlock(block, MessageTypeLocation); err != nil {
		return Location{}, err
	}

	flags := block[1]
	speedMult := flags & 0x01
	eastWest := (flags >> 1) & 0x01
	heightType := (flags >> 2) & 0x01 //nolint:mnd // bit 2
	status := flags >> 4              //nolint:mnd // high nibble

	direction := float32(block[2])
	if eastWest == 1 {
		direction += directionEastOffset
	}

	return Location{
		Status:          Status(status),
		HeightType:      HeightReference(heightType),
		Direction:       direction,
		SpeedHorizontal: decodeSpeed(block[3], speedMult),
		SpeedVertical:   float32(int8(block[4])) * verticalResolution,
		Latitude:        decodeLatLon(block[5:9]),
		Longitude:       decodeLatLon(block[9:13]),
		AltitudeBaro:    decodeAltitude(block[13:15]),
		AltitudeGeo:     decodeAltitude(block[15:17]),
		Height:          decodeAltitude(block[17:19]),
		HorizAccuracy:   block[19] & 0x0F,
		VertAccuracy:    block[19] >> 4, //nolint:mnd // high nibble
		SpeedAccuracy:   block[20] & 0x0F,
		BaroAccuracy:    block[20] >> 4, //nolint:mnd // high nibble
		Timestamp:       binary.LittleEndian.Uint16(block[21:23]),
		TSAccuracy:      block[23] & 0x0F,
	}, nil
}

// DecodeSystem decodes a System message block.
//
// Byte layout (after the header byte):
//
//	Byte 1:     Classification type (bits 4-2) | operator location type (bits 1-0)
//	Byte 2-5:   Operator latitude (int32, 1e-7 degrees)
//	Byte 6-9:   Operator longitude (int32, 1e-7 degrees)
//	Byte 10-11: Area count
//	Byte 12:    Area radius (x10 m)
//	Byte 13-14: Area ceiling
//	Byte 15-16: Area floor
//	Byte 17:    EU category (high nibble) | EU class (low nibble)
//	Byte 18-19: Operator geodetic altitude
//	Byte 20-23: Timestamp (seconds since 2019-01-01)
func DecodeSystem(block []byte) (System, error) {
	if err := checkBlock(block, MessageTypeSystem); err != nil {
		return System{}, err
	}

	flags := block[1]

	return System{
		OperatorLocationType: OperatorLocationType(flags & 0x03),
		ClassificationType:   (flags >> 2) & 0x07, //nolint:mnd // bits 4-2
		OperatorLatitude:     decodeLatLon(block[2:6]),
		OperatorLongitude:    decodeLatLon(block[6:10]),
		AreaCount:            binary.LittleEndian.Uint16(block[10:12]),
		AreaRadius:           uint16(block[12]) * areaRadiusScale,
		AreaCeiling:          decodeAltitude(block[13:15]),
		AreaFloor:            decodeAltitude(block[15:17]),
		CategoryEU:           block[17] >> 4, //nolint:mnd // high nibble
		ClassEU:              block[17] & 0x0F,
		OperatorAltitudeGeo:  decodeAltitude(block[18:20]),
		Timestamp:            binary.LittleEndian.Uint32(block[20:24]),
	}, nil
}

// DecodeOperatorID decodes an OperatorID message block.
//
// Byte layout (after the header byte):
//
//	Byte 1:     Operator ID type
//	Byte 2-21:  Operator ID, NUL padded
func DecodeOperatorID(block []byte) (OperatorID, error) {
	if err := checkBlock(block, MessageTypeOperatorID); err != nil {
		return OperatorID{}, err
	}

	return OperatorID{
		OperatorIDType: block[1],
		OperatorID:     decodeString(block[2 : 2+IDSize]),
	}, nil
}

// checkBlock validates length and header type.
func checkBlock(block []byte, want MessageType) error {
	if len(block) < MessageSize {
		return fmt.Errorf("%w: %d bytes, need %d", ErrShortMessage, len(block), MessageSize)
	}
	if got, _ := TypeOf(block); got != want {
		return fmt.Errorf("%w: header type 0x%X, want 0x%X", ErrWrongMessageType, uint8(got), uint8(want))
	}
	return nil
}

// decodeString returns the bytes up to the first NUL.
func decodeString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func decodeLatLon(b []byte) float64 {
	return float64(int32(binary.LittleEndian.Uint32(b))) * latLonMultiplier
}

func decodeAltitude(b []byte) float32 {
	return float32(binary.LittleEndian.Uint16(b))*altitudeResolution - altitudeOffset
}

func decodeSpeed(raw, mult uint8) float32 {
	if mult == 0 {
		return float32(raw) * speedLowResolution
	}
	return float32(raw)*speedHighResolution + speedHighBase
}
