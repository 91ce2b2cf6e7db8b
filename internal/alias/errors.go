package alias

import "errors"

var (
	// ErrAliasNotFound is returned when no alias exists for a MAC.
	ErrAliasNotFound = errors.New("alias: not found")

	// ErrInvalidAlias is returned when a MAC or name fails validation.
	ErrInvalidAlias = errors.New("alias: invalid")
)
