package ws

import (
	"context"
	"log/slog"

	"github.com/mcoot/conquestgame-go/internal/events"
	"github.com/mcoot/conquestgame-go/internal/model"
)

// Broadcaster routes encoded events from the bus to the right clients
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "ws-broadcaster")),
	}
}

// Deliver sends one event to its audience. It never blocks on a client.
func (b *Broadcaster) Deliver(_ context.Context, d events.Delivery) error {
	switch d.Audience {
	case model.AudienceSession:
		if !b.hubManager.SendTo(d.SessionID, d.Frame) {
			b.logger.Debug("ws session unavailable",
				slog.String("type", string(d.Type)),
				slog.String("session_id", string(d.SessionID)))
		}
	case model.AudienceRoomExcept:
		b.hubManager.Broadcast(d.Room, d.Frame, d.SessionID)
	default:
		b.hubManager.Broadcast(d.Room, d.Frame, "")
	}
	return nil
}

// Run subscribes the broadcaster to the bus
func (b *Broadcaster) Run(ctx context.Context, bus *events.Bus) error {
	return bus.Subscribe(ctx, b.Deliver)
}
