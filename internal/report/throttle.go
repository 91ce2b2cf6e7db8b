package report

import (
	"time"

	"golang.org/x/time/rate"
)

// Throttle allows at most one event per interval for everything sharing it.
type Throttle struct {
	limiter *rate.Limiter
	clock   func() time.Time
}

// NewThrottle creates a Throttle. The first call to Allow succeeds.
// A nil clock selects time.Now.
func NewThrottle(interval time.Duration, clock func() time.Time) *Throttle {
	if clock == nil {
		clock = time.Now
	}
	return &Throttle{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		clock:   clock,
	}
}

// Allow reports whether an event may happen now and, if so, consumes the
// interval.
func (t *Throttle) Allow() bool {
	return t.limiter.AllowN(t.clock(), 1)
}
