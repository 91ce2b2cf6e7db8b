package remoteid

// Service-data envelope of an OpenDroneID Bluetooth legacy advertisement:
//
//	Byte 0:   AD structure length
//	Byte 1:   AD type 0x16 (service data, 16-bit UUID)
//	Byte 2-3: UUID 0xFFFA (ASTM), little endian
//	Byte 4:   application code 0x0D (OpenDroneID)
//	Byte 5:   message counter
//	Byte 6+:  message block
const (
	signatureOffset  = 1
	subMessageOffset = 6
)

var signature = [4]byte{0x16, 0xFA, 0xFF, 0x0D}

// RawAdvertisement is one sighting delivered by a scanner.
type RawAdvertisement struct {
	Address Address
	RSSI    int
	Payload []byte
}

// DetectSignature reports whether payload carries an OpenDroneID message
// and, if so, the offset and length of the message block. A payload of
// exactly six bytes matches with an empty block.
func DetectSignature(payload []byte) (offset, length int, ok bool) {
	if len(payload) < subMessageOffset {
		return 0, 0, false
	}
	for i, b := range signature {
		if payload[signatureOffset+i] != b {
			return 0, 0, false
		}
	}
	return subMessageOffset, len(payload) - subMessageOffset, true
}

// SubMessage returns the message block of a matching payload.
func SubMessage(payload []byte) ([]byte, bool) {
	offset, length, ok := DetectSignature(payload)
	if !ok {
		return nil, false
	}
	return payload[offset : offset+length], true
}

// EncodeAdvertisement wraps a message block in the service-data envelope.
func EncodeAdvertisement(counter byte, block []byte) []byte {
	payload := make([]byte, subMessageOffset+len(block))
	payload[0] = byte(len(payload) - 1)
	copy(payload[signatureOffset:], signature[:])
	payload[5] = counter
	copy(payload[subMessageOffset:], block)
	return payload
}
