package broadcast

import (
	"context"
	"sync"
)

// State holds a current value and publishes every change to its subscribers.
// A new subscriber immediately receives the current value, if one has been set.
// Subscribers that fall behind only ever see the newest value; intermediate
// values are conflated, never queued.
type State[T any] struct {
	registry registry[T]
	value    T
	set      bool
	mu       sync.Mutex
}

// NewState returns an empty State.
func NewState[T any]() *State[T] {
	return &State[T]{registry: newRegistry[T]()}
}

// NewStateOf returns a State seeded with v.
func NewStateOf[T any](v T) *State[T] {
	s := NewState[T]()
	s.value = v
	s.set = true
	return s
}

// Set stores v and publishes it. Returns ErrClosed after Close.
func (s *State[T]) Set(v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registry.fanout(Message[T]{Data: v}); !ok {
		return ErrClosed
	}
	s.value = v
	s.set = true
	return nil
}

// Get returns the current value and whether one has been set.
func (s *State[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.set
}

// Subscribe registers a subscriber and replays the current value to it.
// After Close it returns a closed subscriber.
func (s *State[T]) Subscribe(ctx context.Context) Subscriber[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := newSubscriber[T](1, true)
	if s.registry.add(ctx, sub) && s.set {
		sub.send(Message[T]{Data: s.value})
	}
	return sub
}

// Values subscribes and unwraps messages into a plain channel.
// The channel closes when ctx is done or the state is closed.
func (s *State[T]) Values(ctx context.Context) <-chan T {
	return Values(ctx, s.Subscribe(ctx))
}

// Close closes every subscriber. It is safe to call Close multiple times.
func (s *State[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.close()
	return nil
}

// Values forwards the data of each message received by sub until ctx is done
// or sub is closed. The returned channel is unbuffered.
func Values[T any](ctx context.Context, sub Subscriber[T]) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		defer sub.Close()
		in := sub.Receive(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- msg.Data:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
