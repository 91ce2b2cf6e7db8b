package odid

import "errors"

// Domain errors for the odid package.
var (
	// ErrShortMessage is returned when a block is shorter than MessageSize.
	ErrShortMessage = errors.New("odid: message too short")

	// ErrWrongMessageType is returned when a block's type nibble does not
	// match the decoder it was passed to.
	ErrWrongMessageType = errors.New("odid: wrong message type")

	// ErrFieldRange is returned by encoders when a value cannot be represented.
	ErrFieldRange = errors.New("odid: field out of range")
)
