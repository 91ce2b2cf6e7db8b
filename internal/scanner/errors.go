package scanner

import "errors"

// Domain errors for the scanner package.
var (
	// ErrInvalidLine is returned when a line is not an advertisement record.
	ErrInvalidLine = errors.New("scanner: invalid advertisement line")

	// ErrInvalidPayload is returned when the payload is not valid hex.
	ErrInvalidPayload = errors.New("scanner: invalid payload")
)
