// Package events carries committed game events from the services to the transport layer
package events

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/mcoot/conquestgame-go/internal/dependencies/clock"
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/protocol"
)

// Topic is the watermill topic every outbound event travels on
const Topic = "outbound"

// Metadata keys used to route a frame without decoding it
const (
	metaKeyType     = "type"
	metaKeyRoom     = "room"
	metaKeyAudience = "audience"
	metaKeySession  = "session_id"
	metaKeyMatch    = "match_id"
)

// Publisher publishes events. Publishing is fire-and-forget for the caller.
type Publisher interface {
	Publish(ctx context.Context, e model.Event)
}

// Delivery is an encoded event with its routing information
type Delivery struct {
	Type      model.EventType
	Room      string
	Audience  model.Audience
	SessionID model.SessionID
	MatchID   model.MatchID
	Frame     []byte
}

// Handler consumes deliveries
type Handler func(ctx context.Context, d Delivery) error

// Bus is an in-process event bus backed by watermill's GoChannel.
// Publish blocks until the subscriber has acknowledged the message, so events
// from a single publisher reach the subscriber in publish order.
type Bus struct {
	pubsub *gochannel.GoChannel
	clock  clock.Clock
	logger *slog.Logger
}

// NewBus creates a new Bus
func NewBus(clk clock.Clock, logger *slog.Logger) *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{BlockPublishUntilSubscriberAck: true},
			watermill.NewStdLogger(false, false),
		),
		clock:  clk,
		logger: logger.With(slog.String("component", "event-bus")),
	}
}

// Ensure Bus implements Publisher
var _ Publisher = (*Bus)(nil)

// Publish encodes the event and hands it to the subscriber
func (b *Bus) Publish(ctx context.Context, e model.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = b.clock.Now()
	}
	if e.Audience == "" {
		e.Audience = model.AudienceRoom
	}

	frame, err := protocol.EncodeEvent(e)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("type", string(e.Type)),
			slog.String("error", err.Error()))
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), frame)
	msg.SetContext(ctx)
	msg.Metadata.Set(metaKeyType, string(e.Type))
	msg.Metadata.Set(metaKeyRoom, e.Room)
	msg.Metadata.Set(metaKeyAudience, string(e.Audience))
	msg.Metadata.Set(metaKeySession, string(e.SessionID))
	msg.Metadata.Set(metaKeyMatch, string(e.MatchID))

	if err := b.pubsub.Publish(Topic, msg); err != nil {
		b.logger.Error("failed to publish event",
			slog.String("type", string(e.Type)),
			slog.String("error", err.Error()))
	}
}

// Subscribe starts delivering events to handler until ctx is cancelled or the bus closes
func (b *Bus) Subscribe(ctx context.Context, handler Handler) error {
	messages, err := b.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			d := Delivery{
				Type:      model.EventType(msg.Metadata.Get(metaKeyType)),
				Room:      msg.Metadata.Get(metaKeyRoom),
				Audience:  model.Audience(msg.Metadata.Get(metaKeyAudience)),
				SessionID: model.SessionID(msg.Metadata.Get(metaKeySession)),
				MatchID:   model.MatchID(msg.Metadata.Get(metaKeyMatch)),
				Frame:     msg.Payload,
			}
			if err := handler(ctx, d); err != nil {
				b.logger.Warn("event handler failed",
					slog.String("type", string(d.Type)),
					slog.String("error", err.Error()))
			}
			// Always ack: a failed delivery is not retried
			msg.Ack()
		}
		b.logger.Debug("event subscription ended")
	}()

	return nil
}

// Close stops all subscriptions
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
