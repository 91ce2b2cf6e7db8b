package alias

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
)

// MaxNameLength bounds an alias so it fits alongside a compact drone line.
const MaxNameLength = 32

// Alias is a display name attached to one drone address.
type Alias struct {
	MAC       string    `json:"mac"`
	Name      string    `json:"alias"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeMAC returns the canonical lowercase colon form of mac.
func NormalizeMAC(mac string) (string, error) {
	addr, err := remoteid.ParseAddress(mac)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAlias, err)
	}
	return addr.String(), nil
}

// ValidateName trims name and checks its length and characters.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", fmt.Errorf("%w: name is required", ErrInvalidAlias)
	case utf8.RuneCountInString(name) > MaxNameLength:
		return "", fmt.Errorf("%w: name longer than %d characters", ErrInvalidAlias, MaxNameLength)
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return "", fmt.Errorf("%w: name contains non-printable characters", ErrInvalidAlias)
		}
	}
	return name, nil
}
