// Package event provides a typed in-process broadcast bus.
//
// A Bus fans events out to every connected subscriber. Each subscriber
// owns a bounded buffer; Publish never blocks the producer. When a
// subscriber's buffer is full the event is dropped for that subscriber
// only, so a stalled consumer cannot back-pressure the rest of the
// system. Events from a single producer arrive at each subscriber in
// publish order. Publishing with no subscribers is a no-op.
package event

import "sync"

// Bus is a multi-producer multi-consumer broadcast channel for values
// of type T. The zero value is not usable; create one with NewBus.
type Bus[T any] struct {
	mu       sync.RWMutex
	capacity int
	subs     map[int]chan T
	nextID   int
}

// NewBus creates a bus whose subscribers buffer up to capacity events.
func NewBus[T any](capacity int) *Bus[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Bus[T]{
		capacity: capacity,
		subs:     make(map[int]chan T),
	}
}

// Subscribe registers a new subscriber and returns its receive channel
// along with a cancel function that drops the subscription and closes
// the channel. Events published before Subscribe are not delivered.
func (b *Bus[T]) Subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan T, b.capacity)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers ev to every current subscriber. Delivery to a
// subscriber whose buffer is full is skipped.
func (b *Bus[T]) Publish(ev T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber stalled, drop rather than block the producer.
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (b *Bus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
