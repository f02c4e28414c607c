package events

import (
	"context"
	"sync"

	"kanban-board/domain"
)

// Broker fans events out to in-process subscribers. A subscriber that falls
// behind misses events rather than blocking the sender; every event only
// tells the reader to refetch.
type Broker struct {
	mu   sync.Mutex
	subs map[chan domain.Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan domain.Event]struct{})}
}

// Subscribe registers a listener. Call the returned func to release it.
func (b *Broker) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 8)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
		})
	}
}

// Subscribers reports how many listeners are registered.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish lets the broker serve directly as the store's publisher.
func (b *Broker) Publish(ctx context.Context, ev domain.Event) {
	_ = b.Send(ctx, ev)
}

// Send delivers ev to every subscriber with room in its buffer.
func (b *Broker) Send(ctx context.Context, ev domain.Event) error {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	b.mu.Unlock()
	return nil
}
