package odid

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	maxLatitude     = 90
	maxLongitude    = 180
	maxDirection    = 360
	maxRawSpeed     = 254
	invalidSpeed    = 255
	maxAltitude     = 31767
	minAltitude     = -1000
	maxVerticalRate = 62
)

// EncodeBasicID encodes a BasicID message block.
//
// Returns:
//   - []byte: MessageSize bytes
//   - error: ErrFieldRange if the UAS ID is longer than IDSize or a nibble overflows
func EncodeBasicID(m BasicID) ([]byte, error) {
	if len(m.UASID) > IDSize {
		return nil, fmt.Errorf("%w: uas id is %d bytes, max %d", ErrFieldRange, len(m.UASID), IDSize)
	}
	if m.IDType > 0x0F || m.UAType > 0x0F {
		return nil, fmt.Errorf("%w: id type %d or ua type %d", ErrFieldRange, m.IDType, m.UAType)
	}

	block := newBlock(MessageTypeBasicID)
	block[1] = byte(m.IDType)<<4 | byte(m.UAType) //nolint:mnd // nibble
	copy(block[2:2+IDSize], m.UASID)
	return block, nil
}

// EncodeLocation encodes a Location/Vector message block.
//
// Speeds above the representable range are clamped to the largest encodable
// value. Latitude, longitude, altitudes and direction must be in range.
func EncodeLocation(m Location) ([]byte, error) {
	if math.Abs(m.Latitude) > maxLatitude || math.Abs(m.Longitude) > maxLongitude {
		return nil, fmt.Errorf("%w: position %f,%f", ErrFieldRange, m.Latitude, m.Longitude)
	}
	if m.Direction < 0 || m.Direction > maxDirection {
		return nil, fmt.Errorf("%w: direction %f", ErrFieldRange, m.Direction)
	}

	block := newBlock(MessageTypeLocation)

	direction := m.Direction
	var eastWest byte
	if direction >= directionEastOffset {
		eastWest = 1
		direction -= directionEastOffset
	}
	speed, mult := encodeSpeed(m.SpeedHorizontal)

	block[1] = byte(m.Status)<<4 | byte(m.HeightType&0x01)<<2 | eastWest<<1 | mult //nolint:mnd // flag bits
	block[2] = byte(direction)
	block[3] = speed
	block[4] = byte(encodeVertical(m.SpeedVertical))
	binary.LittleEndian.PutUint32(block[5:9], uint32(encodeLatLon(m.Latitude)))
	binary.LittleEndian.PutUint32(block[9:13], uint32(encodeLatLon(m.Longitude)))

	for i, alt := range []float32{m.AltitudeBaro, m.AltitudeGeo, m.Height} {
		raw, err := encodeAltitude(alt)
		if err != nil {
			return nil, err
		}
		off := 13 + 2*i //nolint:mnd // three consecutive uint16 fields
		binary.LittleEndian.PutUint16(block[off:off+2], raw)
	}

	block[19] = (m.VertAccuracy&0x0F)<<4 | m.HorizAccuracy&0x0F  //nolint:mnd // nibbles
	block[20] = (m.BaroAccuracy&0x0F)<<4 | m.SpeedAccuracy&0x0F //nolint:mnd // nibbles
	binary.LittleEndian.PutUint16(block[21:23], m.Timestamp)
	block[23] = m.TSAccuracy & 0x0F
	return block, nil
}

// EncodeSystem encodes a System message block.
func EncodeSystem(m System) ([]byte, error) {
	if math.Abs(m.OperatorLatitude) > maxLatitude || math.Abs(m.OperatorLongitude) > maxLongitude {
		return nil, fmt.Errorf("%w: operator position %f,%f", ErrFieldRange, m.OperatorLatitude, m.OperatorLongitude)
	}

	block := newBlock(MessageTypeSystem)
	block[1] = (m.ClassificationType&0x07)<<2 | byte(m.OperatorLocationType&0x03) //nolint:mnd // flag bits
	binary.LittleEndian.PutUint32(block[2:6], uint32(encodeLatLon(m.OperatorLatitude)))
	binary.LittleEndian.PutUint32(block[6:10], uint32(encodeLatLon(m.OperatorLongitude)))
	binary.LittleEndian.PutUint16(block[10:12], m.AreaCount)

	radius := m.AreaRadius / areaRadiusScale
	if radius > math.MaxUint8 {
		radius = math.MaxUint8
	}
	block[12] = byte(radius)

	for i, alt := range []float32{m.AreaCeiling, m.AreaFloor} {
		raw, err := encodeAltitude(alt)
		if err != nil {
			return nil, err
		}
		off := 13 + 2*i //nolint:mnd // consecutive uint16 fields
		binary.LittleEndian.PutUint16(block[off:off+2], raw)
	}

	block[17] = (m.CategoryEU&0x0F)<<4 | m.ClassEU&0x0F //nolint:mnd // nibbles

	raw, err := encodeAltitude(m.OperatorAltitudeGeo)
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint16(block[18:20], raw)
	binary.LittleEndian.PutUint32(block[20:24], m.Timestamp)
	return block, nil
}

// EncodeOperatorID encodes an OperatorID message block.
func EncodeOperatorID(m OperatorID) ([]byte, error) {
	if len(m.OperatorID) > IDSize {
		return nil, fmt.Errorf("%w: operator id is %d bytes, max %d", ErrFieldRange, len(m.OperatorID), IDSize)
	}

	block := newBlock(MessageTypeOperatorID)
	block[1] = m.OperatorIDType
	copy(block[2:2+IDSize], m.OperatorID)
	return block, nil
}

func newBlock(t MessageType) []byte {
	block := make([]byte, MessageSize)
	block[0] = byte(t)<<messageTypeShift | ProtocolVersion
	return block
}

func encodeLatLon(deg float64) int32 {
	return int32(math.Round(deg / latLonMultiplier))
}

func encodeAltitude(alt float32) (uint16, error) {
	if alt < minAltitude || alt > maxAltitude {
		return 0, fmt.Errorf("%w: altitude %f", ErrFieldRange, alt)
	}
	return uint16((alt + altitudeOffset) / altitudeResolution), nil
}

// encodeSpeed returns the raw speed byte and the multiplier flag.
func encodeSpeed(speed float32) (raw, mult byte) {
	switch {
	case speed < 0:
		return invalidSpeed, 0
	case speed <= speedHighBase:
		return byte(speed / speedLowResolution), 0
	}
	v := (speed - speedHighBase) / speedHighResolution
	if v > maxRawSpeed {
		v = maxRawSpeed
	}
	return byte(v), 1
}

func encodeVertical(rate float32) int8 {
	if rate > maxVerticalRate {
		rate = maxVerticalRate
	}
	if rate < -maxVerticalRate {
		rate = -maxVerticalRate
	}
	return int8(rate / verticalResolution)
}
