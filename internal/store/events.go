package store

import "sync"

// EventType identifies what changed in the store.
type EventType string

const (
	RouteCreated EventType = "route.created"
	RouteUpdated EventType = "route.updated"
	RouteDeleted EventType = "route.deleted"
	StateChanged EventType = "state.changed"
)

// Event is delivered to subscribers after a change.
type Event struct {
	Type    EventType
	RouteID int
	State   State
}

// broker fans events out to subscriber channels. Slow subscribers miss
// events rather than block the store.
type broker struct {
	mu     sync.Mutex
	size   int
	subs   map[chan Event]struct{}
	closed bool
}

func newBroker(size int) *broker {
	return &broker{size: size, subs: map[chan Event]struct{}{}}
}

func (b *broker) subscribe() chan Event {
	ch := make(chan Event, b.size)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	return ch
}

func (b *broker) unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *broker) publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		close(ch)
	}
	b.subs = map[chan Event]struct{}{}
	b.closed = true
}
