package report

import "errors"

// Domain errors for the report package.
var (
	// ErrNoRoom is returned by a compact sink when a line does not fit in its
	// outbound buffer. The line is dropped, not queued.
	ErrNoRoom = errors.New("report: no room for message")

	// ErrSinkClosed is returned when writing to a closed sink.
	ErrSinkClosed = errors.New("report: sink closed")
)
