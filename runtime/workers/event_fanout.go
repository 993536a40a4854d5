package workers

import (
	"context"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain/event"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout delivers coordinator events to the live connections of
// the event's room, or to one specific connection for scoped notices.
//
// It is best-effort: no delivery guarantees, no retries, no
// durability. The ledger is the source of truth; this worker only
// feeds screens. A single fanout goroutine consumes the channel, so
// per-room broadcast order matches enqueue order.
type EventFanout struct {
	log      *slog.Logger
	registry contract.IRegistry
	events   <-chan event.DomainEvent
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry, events <-chan event.DomainEvent) *EventFanout {
	return &EventFanout{log: log, registry: registry, events: events}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		case evt := <-w.events:
			w.fanout(evt)
		}
	}
}

func (w *EventFanout) fanout(evt event.DomainEvent) {
	if notice, ok := evt.(event.Notice); ok && notice.SessionID != "" {
		if sink, exists := w.registry.GetSink(notice.SessionID); exists {
			if err := sink.Consume(evt); err != nil {
				w.log.Debug("Notice delivery failed", "session", notice.SessionID, "err", err)
			}
		}
		return
	}

	for _, sink := range w.registry.GetSinksForRoom(evt.Token()) {
		if err := sink.Consume(evt); err != nil {
			w.log.Debug("Broadcast delivery failed", "room", evt.Token(), "err", err)
		}
	}
}
