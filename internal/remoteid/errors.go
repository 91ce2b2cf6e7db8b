package remoteid

import "errors"

// ErrInvalidAddress is returned when a device address string cannot be parsed.
var ErrInvalidAddress = errors.New("remoteid: invalid address")
