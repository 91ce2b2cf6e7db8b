package scanner

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
)

// maxPayloadSize covers extended advertising; legacy adverts are 31 bytes.
const maxPayloadSize = 255

type record struct {
	Addr    string `json:"addr"`
	RSSI    int    `json:"rssi"`
	Payload string `json:"payload"`
}

// ParseLine decodes one advertisement record.
//
// Returns:
//   - remoteid.RawAdvertisement: The decoded advertisement
//   - error: ErrInvalidLine, ErrInvalidPayload or remoteid.ErrInvalidAddress
func ParseLine(line []byte) (remoteid.RawAdvertisement, error) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return remoteid.RawAdvertisement{}, fmt.Errorf("%w: %v", ErrInvalidLine, err)
	}
	if rec.Addr == "" {
		return remoteid.RawAdvertisement{}, fmt.Errorf("%w: missing addr", ErrInvalidLine)
	}

	addr, err := remoteid.ParseAddress(rec.Addr)
	if err != nil {
		return remoteid.RawAdvertisement{}, err
	}

	payload, err := hex.DecodeString(rec.Payload)
	if err != nil {
		return remoteid.RawAdvertisement{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(payload) > maxPayloadSize {
		return remoteid.RawAdvertisement{}, fmt.Errorf("%w: %d bytes", ErrInvalidPayload, len(payload))
	}

	return remoteid.RawAdvertisement{Address: addr, RSSI: rec.RSSI, Payload: payload}, nil
}

// FormatLine encodes adv as an advertisement record without a trailing newline.
func FormatLine(adv remoteid.RawAdvertisement) ([]byte, error) {
	return json.Marshal(record{
		Addr:    adv.Address.String(),
		RSSI:    adv.RSSI,
		Payload: hex.EncodeToString(adv.Payload),
	})
}
