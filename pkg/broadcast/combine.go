package broadcast

import "context"

// Pair is the combined latest values of two streams.
type Pair[A, B any] struct {
	First  A
	Second B
}

// CombineLatest emits a Pair once both inputs have produced a value and again
// whenever either changes. While the consumer is busy only the newest pair is
// kept. The output closes when ctx is done or both inputs are closed.
func CombineLatest[A, B any](ctx context.Context, a <-chan A, b <-chan B) <-chan Pair[A, B] {
	out := make(chan Pair[A, B])

	go func() {
		defer close(out)

		var latest Pair[A, B]
		var hasA, hasB, pending bool
		closedA, closedB := a == nil, b == nil

		for {
			var send chan<- Pair[A, B]
			if pending {
				send = out
			}
			if closedA && closedB && !pending {
				return
			}

			select {
			case <-ctx.Done():
				return
			case v, ok := <-a:
				if !ok {
					a, closedA = nil, true
					continue
				}
				latest.First, hasA = v, true
				pending = hasA && hasB
			case v, ok := <-b:
				if !ok {
					b, closedB = nil, true
					continue
				}
				latest.Second, hasB = v, true
				pending = hasA && hasB
			case send <- latest:
				pending = false
			}
		}
	}()

	return out
}
