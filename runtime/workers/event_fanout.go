package workers

import (
	"context"
	"log/slog"
	"time"

	"dm-lab/contract"
	"dm-lab/domain/event"
)

// EventFanout drains the engine's event channel and delivers each event to
// the live sessions it addresses, resolved through the registry at delivery
// time. Delivery is best effort: no retries, no durability. A slow sink is
// abandoned after sinkTimeout and the loop moves on; one stuck connection
// must never delay the others.
//
// Events are processed one at a time, so delivery order per conversation
// matches the order the engine emitted them in.
type EventFanout struct {
	log         *slog.Logger
	registry    contract.IRegistry
	events      chan event.DomainEvent
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry,
	events chan event.DomainEvent, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:         log,
		registry:    registry,
		events:      events,
		sinkTimeout: sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fan-out")
			return nil
		}
	}
}

// Fanout resolves the target sinks for one event and pushes it to each.
//
// MessagePosted goes to every session of every recipient, author included,
// so all their open devices render the message. NotificationRaised goes
// only to the addressee's sessions not currently viewing the conversation;
// sessions looking at it already got the message itself.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	var sinks []contract.EventSink
	switch e := evt.(type) {
	case event.MessagePosted:
		for _, userID := range e.Recipients {
			sinks = append(sinks, w.registry.SinksForUser(userID)...)
		}
	case event.ConversationCreated:
		sinks = w.registry.SinksForUser(e.UserID)
	case event.NotificationRaised:
		sinks = w.registry.SinksForUserAway(e.UserID, e.Message.ConversationID)
	default:
		w.log.Warn("Unhandled event type", "channel", evt.Channel())
		return
	}

	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			// Never propagated: a dead connection is the session's problem.
			w.log.Warn("Sink consume failed", "channel", evt.Channel(), "error", err)
		}
		cancel()
	}
}
