package remoteid

import "github.com/nerrad567/remoteid-mesh/internal/odid"

// Decoder converts a message block of one kind into its typed fields.
// Implementations must be pure.
type Decoder interface {
	DecodeBasicID(block []byte) (odid.BasicID, error)
	DecodeLocation(block []byte) (odid.Location, error)
	DecodeSystem(block []byte) (odid.System, error)
	DecodeOperatorID(block []byte) (odid.OperatorID, error)
}

// ODIDDecoder is the Decoder backed by package odid.
type ODIDDecoder struct{}

// DecodeBasicID implements Decoder.
func (ODIDDecoder) DecodeBasicID(block []byte) (odid.BasicID, error) { return odid.DecodeBasicID(block) }

// DecodeLocation implements Decoder.
func (ODIDDecoder) DecodeLocation(block []byte) (odid.Location, error) {
	return odid.DecodeLocation(block)
}

// DecodeSystem implements Decoder.
func (ODIDDecoder) DecodeSystem(block []byte) (odid.System, error) { return odid.DecodeSystem(block) }

// DecodeOperatorID implements Decoder.
func (ODIDDecoder) DecodeOperatorID(block []byte) (odid.OperatorID, error) {
	return odid.DecodeOperatorID(block)
}

// Classifier maps a message block's tag to a kind and decodes it.
type Classifier struct {
	decoder Decoder
}

// NewClassifier creates a Classifier. A nil decoder selects ODIDDecoder.
func NewClassifier(decoder Decoder) *Classifier {
	if decoder == nil {
		decoder = ODIDDecoder{}
	}
	return &Classifier{decoder: decoder}
}

// Classify decodes block into a Message.
//
// Returns:
//   - Message: The decoded variant, nil unless the outcome is OutcomeMerged
//   - Outcome: OutcomeMerged on success, OutcomeUnknownTag for kinds other
//     than the four tracked ones, OutcomeDecodeFailed if the decoder rejects
//     the block
func (c *Classifier) Classify(block []byte) (Message, Outcome) {
	if len(block) == 0 {
		return nil, OutcomeUnknownTag
	}

	switch Kind(block[0] & kindMask) {
	case KindBasicID:
		m, err := c.decoder.DecodeBasicID(block)
		if err != nil {
			return nil, OutcomeDecodeFailed
		}
		return BasicID{UAVID: m.UASID}, OutcomeMerged

	case KindLocation:
		m, err := c.decoder.DecodeLocation(block)
		if err != nil {
			return nil, OutcomeDecodeFailed
		}
		// Conversions truncate toward zero.
		return Location{
			Latitude:    m.Latitude,
			Longitude:   m.Longitude,
			AltitudeMSL: int32(m.AltitudeGeo),
			HeightAGL:   int32(m.Height),
			Speed:       int32(m.SpeedHorizontal),
			Heading:     int32(m.Direction),
		}, OutcomeMerged

	case KindSystem:
		m, err := c.decoder.DecodeSystem(block)
		if err != nil {
			return nil, OutcomeDecodeFailed
		}
		return System{
			OperatorLatitude:  m.OperatorLatitude,
			OperatorLongitude: m.OperatorLongitude,
		}, OutcomeMerged

	case KindOperatorID:
		m, err := c.decoder.DecodeOperatorID(block)
		if err != nil {
			return nil, OutcomeDecodeFailed
		}
		return OperatorID{OperatorID: m.OperatorID}, OutcomeMerged

	default:
		return nil, OutcomeUnknownTag
	}
}
