// Package sink contains EventSink implementations bridging the fan-out
// worker to consumers: live WebSocket sessions and in-process projections.
package sink

import (
	"context"

	"dm-lab/domain/event"
)

// SessionSink buffers events for one connected session. The fan-out worker
// pushes into Events; the session's write pump drains it toward the socket.
type SessionSink struct {
	Events chan event.DomainEvent
}

func NewSessionSink(bufferSize int) *SessionSink {
	return &SessionSink{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume hands the event to the session's write pump. When the buffer is
// full the event is dropped rather than applying backpressure to the
// fan-out loop; a session that slow is about to be disconnected anyway.
func (s *SessionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
