package report

import "context"

// DetectionSink receives one structured event per updated record.
type DetectionSink interface {
	Name() string
	WriteDetection(ctx context.Context, d Detection) error
}

// CompactSink receives compact text lines. Implementations must not block
// waiting for room; they return ErrNoRoom instead.
type CompactSink interface {
	Name() string
	WriteCompact(ctx context.Context, line string) error
}

// AliasLookup returns the operator-assigned name for a MAC, if any.
type AliasLookup interface {
	Alias(mac string) (string, bool)
}
