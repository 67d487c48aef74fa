package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time

	// NewTicker returns a ticker firing every d
	NewTicker(d time.Duration) clockwork.Ticker

	// AfterFunc runs f in its own goroutine once d has elapsed. The returned timer can cancel it.
	AfterFunc(d time.Duration, f func()) clockwork.Timer
}

// RealClock implements Clock using the system clock
type RealClock struct {
	clockwork.Clock
}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{Clock: clockwork.NewRealClock()}
}
