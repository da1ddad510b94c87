// Package broadcast provides type-safe in-process publish/subscribe primitives.
//
// MemoryBroadcaster is a hot multicast: subscribers only see messages sent
// after they subscribed, and slow subscribers are dropped instead of blocking
// the sender.
//
// State holds a current value. New subscribers receive it immediately and
// then every change. A subscriber that falls behind skips straight to the
// newest value.
//
//	items := broadcast.NewState[[]string]()
//	defer items.Close()
//
//	for v := range items.Values(ctx) {
//		render(v)
//	}
//
// CombineLatest joins two value streams into a stream of pairs, emitting
// once both have produced a value and again whenever either changes.
package broadcast
