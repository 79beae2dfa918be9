// internal/realtime/memory.go
package realtime

import (
	"context"
)

// MemoryBroker delivers events within a single process.
type MemoryBroker struct {
	hub *hub
}

func NewMemoryBroker(buffer int) *MemoryBroker {
	return &MemoryBroker{hub: newHub(buffer)}
}

func (b *MemoryBroker) Publish(ctx context.Context, event Event) error {
	if b.hub.isClosed() {
		return ErrBrokerClosed
	}
	b.hub.dispatch(event)
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, table string, filter Filter) (*Subscription, error) {
	return b.hub.subscribe(ctx, table, filter)
}

func (b *MemoryBroker) Close() error {
	b.hub.close()
	return nil
}
