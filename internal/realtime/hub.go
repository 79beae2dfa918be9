// internal/realtime/hub.go
package realtime

import (
	"context"
	"errors"
	"sync"
)

var ErrBrokerClosed = errors.New("realtime broker closed")

type Subscription struct {
	table  string
	filter Filter
	events chan Event
	done   chan struct{}
	once   sync.Once
	hub    *hub
}

// Events yields change events until the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.done)
	})
}

// hub fans events out to local subscriptions.
type hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
}

func newHub(buffer int) *hub {
	if buffer < 1 {
		buffer = 1
	}
	return &hub{subs: make(map[*Subscription]struct{}), buffer: buffer}
}

func (h *hub) subscribe(ctx context.Context, table string, filter Filter) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrBrokerClosed
	}

	sub := &Subscription{
		table:  table,
		filter: filter,
		events: make(chan Event, h.buffer),
		done:   make(chan struct{}),
		hub:    h,
	}
	h.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

func (h *hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
}

// dispatch never blocks. A subscriber whose buffer is full already has a
// pending event that will trigger a re-fetch, so the new one is dropped.
func (h *hub) dispatch(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if sub.table != e.Table || !sub.filter.Matches(e) {
			continue
		}
		select {
		case sub.events <- e:
		default:
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.closed = true
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

func (h *hub) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}
