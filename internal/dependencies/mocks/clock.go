package mocks

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/conquestgame-go/internal/dependencies/clock"
)

// MockClock is a fake Clock for testing. Time only moves when Advance is called.
type MockClock struct {
	*clockwork.FakeClock
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{FakeClock: clockwork.NewFakeClockAt(t)}
}
