// Package events carries committed transitions to their audiences: an
// in-process hub for connected subscribers and a broker publisher mirroring
// every event for other organizations' services.
package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cafetrace/exportflow/internal/domain"
	"github.com/cafetrace/exportflow/internal/observability"
)

type subscriber struct {
	id int64
	ch chan domain.TransitionEvent
}

// Hub fans transition events out to per-topic subscribers. Delivery is
// at-most-once: a subscriber whose buffer is full loses the event, and there
// is no replay. Consumers that care about gaps re-read current state after
// reconnecting.
type Hub struct {
	logger *slog.Logger

	mu     sync.Mutex
	nextID int64
	topics map[string][]subscriber
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		topics: make(map[string][]subscriber),
	}
}

// Subscribe registers a buffered channel on the topic. The returned cancel
// closes the channel and drops the registration; it is safe to call more
// than once.
func (h *Hub) Subscribe(topic string, buffer int) (<-chan domain.TransitionEvent, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	h.mu.Lock()
	h.nextID++
	sub := subscriber{id: h.nextID, ch: make(chan domain.TransitionEvent, buffer)}
	h.topics[topic] = append(h.topics[topic], sub)
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			subs := h.topics[topic]
			for i, s := range subs {
				if s.id == sub.id {
					h.topics[topic] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			if len(h.topics[topic]) == 0 {
				delete(h.topics, topic)
			}
			// Closed under the hub lock so deliver never writes to a
			// closed channel.
			close(sub.ch)
			h.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

// Notify delivers the event to the export's topic and to the room of the
// organization expected to act at the destination status. Never blocks the
// caller.
func (h *Hub) Notify(ctx context.Context, event domain.TransitionEvent) {
	h.deliver(ctx, domain.TopicExport(event.ExportID), event)
	if owner := domain.StatusOwner(event.ToStatus); owner != domain.OrgUnknown {
		h.deliver(ctx, domain.TopicOrg(owner), event)
	}
}

func (h *Hub) deliver(ctx context.Context, topic string, event domain.TransitionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.topics[topic] {
		select {
		case sub.ch <- event:
		default:
			observability.NotificationsDroppedTotal.Inc()
			h.logger.WarnContext(ctx, "notification dropped",
				"module", "events.hub",
				"topic", topic,
				"export_id", event.ExportID,
				"event_id", event.EventID,
			)
		}
	}
}
