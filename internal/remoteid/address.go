package remoteid

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressSize is the length of a Bluetooth device address.
const AddressSize = 6

// Address is a Bluetooth device address in transmission order.
// The zero Address marks an unused registry slot.
type Address [AddressSize]byte

// ParseAddress parses "aa:bb:cc:dd:ee:ff". Hyphen separators, upper case
// and the bare 12-digit form are accepted too.
func ParseAddress(s string) (Address, error) {
	var a Address

	clean := strings.NewReplacer(":", "", "-", "").Replace(strings.TrimSpace(s))
	if len(clean) != 2*AddressSize {
		return a, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if _, err := hex.Decode(a[:], []byte(clean)); err != nil {
		return a, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	return a, nil
}

// String formats the address as lowercase colon-separated hex.
func (a Address) String() string {
	const digits = "0123456789abcdef"
	buf := make([]byte, 0, 3*AddressSize-1) //nolint:mnd // two digits plus separator
	for i, b := range a {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, digits[b>>4], digits[b&0x0F])
	}
	return string(buf)
}

// IsZero reports whether a is the unused-slot sentinel.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
