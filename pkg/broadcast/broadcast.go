package broadcast

import (
	"context"
	"sync"
)

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster or a State.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns the channel messages are delivered on.
	// The channel is closed once the subscriber is closed.
	Receive(ctx context.Context) <-chan Message[T]

	// Close closes the subscriber and releases resources.
	// Close is idempotent and safe to call multiple times.
	Close() error
}

// Broadcaster sends messages to multiple subscribers.
// Implementations should handle slow consumers gracefully,
// typically by dropping messages rather than blocking.
type Broadcaster[T any] interface {
	// Subscribe creates a new subscriber that will receive all broadcast messages.
	// When ctx is cancelled the subscription is cleaned up.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast sends a message to all active subscribers.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close shuts down the broadcaster and closes all subscribers.
	Close() error
}

type subscriber[T any] struct {
	ch       chan Message[T]
	conflate bool // keep only the newest undelivered message
	closed   bool
	mu       sync.Mutex
}

func newSubscriber[T any](bufferSize int, conflate bool) *subscriber[T] {
	return &subscriber[T]{
		ch:       make(chan Message[T], bufferSize),
		conflate: conflate,
	}
}

func (s *subscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send delivers msg without blocking. A conflating subscriber replaces an
// unread message; any other subscriber reports false when its buffer is full.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	if s.conflate {
		select {
		case <-s.ch:
		default:
		}
	}

	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

// registry tracks live subscribers and detaches them when their context ends.
type registry[T any] struct {
	subscribers map[*subscriber[T]]struct{}
	closed      bool
	mu          sync.RWMutex
}

func newRegistry[T any]() registry[T] {
	return registry[T]{subscribers: make(map[*subscriber[T]]struct{})}
}

// add registers sub. It returns false, with sub closed, if the registry is closed.
func (r *registry[T]) add(ctx context.Context, sub *subscriber[T]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		_ = sub.Close()
		return false
	}
	r.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			r.remove(sub)
		}()
	}
	return true
}

func (r *registry[T]) remove(sub *subscriber[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.subscribers, sub)
	_ = sub.Close()
}

// fanout sends msg to every subscriber and returns those that did not accept it.
func (r *registry[T]) fanout(msg Message[T]) (rejected []*subscriber[T], ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, false
	}
	for sub := range r.subscribers {
		if !sub.send(msg) {
			rejected = append(rejected, sub)
		}
	}
	return rejected, true
}

func (r *registry[T]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers)
}

func (r *registry[T]) close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for sub := range r.subscribers {
		_ = sub.Close()
	}
	clear(r.subscribers)
	r.mu.Unlock()
}
