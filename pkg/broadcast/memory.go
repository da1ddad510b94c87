package broadcast

import "context"

// MemoryBroadcaster is a hot multicast: subscribers see only messages sent
// after they subscribed, and a subscriber whose buffer is full is dropped
// rather than blocking the sender. All methods are safe for concurrent use.
type MemoryBroadcaster[T any] struct {
	registry   registry[T]
	bufferSize int
}

// NewMemoryBroadcaster creates a new in-memory broadcaster.
// The bufferSize parameter determines the channel buffer size for each subscriber;
// a minimum of 1 is enforced.
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	return &MemoryBroadcaster[T]{
		registry:   newRegistry[T](),
		bufferSize: max(bufferSize, 1),
	}
}

// Subscribe creates a new subscriber. If the broadcaster is already closed,
// it returns a closed subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	sub := newSubscriber[T](b.bufferSize, false)
	b.registry.add(ctx, sub)
	return sub
}

// Broadcast sends msg to all active subscribers without blocking.
// Subscribers that cannot accept it are closed and removed.
// Returns ErrClosed after Close.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	rejected, ok := b.registry.fanout(msg)
	if !ok {
		return ErrClosed
	}
	for _, sub := range rejected {
		b.registry.remove(sub)
	}
	return nil
}

// Subscribers returns the number of active subscribers.
func (b *MemoryBroadcaster[T]) Subscribers() int {
	return b.registry.len()
}

// Close shuts down the broadcaster and closes all subscribers.
// It is safe to call Close multiple times.
func (b *MemoryBroadcaster[T]) Close() error {
	b.registry.close()
	return nil
}
