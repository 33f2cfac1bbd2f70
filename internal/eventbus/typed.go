// Package eventbus provides a small in-process fan-out bus. Publishers never
// block: a subscriber that falls behind loses events rather than stalling the
// dispatch path.
package eventbus

import "sync"

const subscriberBuffer = 8

// TypedBus fans events of type T out to every subscriber.
type TypedBus[T any] struct {
	mu     sync.RWMutex
	sinks  []chan T
	closed bool
}

// NewTyped creates an empty TypedBus.
func NewTyped[T any]() *TypedBus[T] { return &TypedBus[T]{} }

// Publish delivers e to each subscriber whose buffer has room.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.sinks {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber. The returned channel is closed on
// Unsubscribe or when the bus shuts down.
func (b *TypedBus[T]) Subscribe() <-chan T {
	ch := make(chan T, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.sinks = append(b.sinks, ch)
	return ch
}

// Unsubscribe detaches sub and closes it. Unknown channels are ignored.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.sinks {
		if ch == sub {
			b.sinks = append(b.sinks[:i], b.sinks[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close shuts the bus down and closes every subscriber channel. Publishing
// after Close is a no-op.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.sinks {
		close(ch)
	}
	b.sinks = nil
}
