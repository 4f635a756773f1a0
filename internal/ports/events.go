package ports

import (
	"context"

	"github.com/cafetrace/exportflow/internal/domain"
)

// EventPublisher delivers serialized events to an external broker.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}

// Notifier fans a transition event out to in-process subscribers of the
// export's topic and the destination organization's room. At-most-once; no
// replay buffer.
type Notifier interface {
	Notify(ctx context.Context, event domain.TransitionEvent)
}
