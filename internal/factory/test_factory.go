package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/conquestgame-go/internal/config"
	"github.com/mcoot/conquestgame-go/internal/dependencies/mocks"
	"github.com/mcoot/conquestgame-go/internal/journal"
	"github.com/mcoot/conquestgame-go/internal/storage/memory"
	"github.com/mcoot/conquestgame-go/internal/transport/ws"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockIDs    *mocks.MockIDs
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithTuning(config.DefaultTuning())
}

// NewTestAppWithTuning creates a test App with custom rules and timing
func NewTestAppWithTuning(tuning config.Tuning) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockIDs := mocks.NewMockIDs()

	app := newWithDependencies(dependencies{
		store:    store,
		clock:    mockClock,
		random:   mockRandom,
		ids:      mockIDs,
		journals: journal.Nop{},
		tuning:   tuning,
		ws:       ws.DefaultConfig(),
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockIDs:    mockIDs,
		Memory:     store,
	}
}
