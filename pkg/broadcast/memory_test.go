package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroadcaster_Subscribe(t *testing.T) {
	t.Run("subscribe after close returns closed subscriber", func(t *testing.T) {
		b := NewMemoryBroadcaster[string](4)
		require.NoError(t, b.Close())

		sub := b.Subscribe(context.Background())
		_, ok := <-sub.Receive(context.Background())
		assert.False(t, ok)
	})

	t.Run("context cancellation unsubscribes", func(t *testing.T) {
		b := NewMemoryBroadcaster[string](4)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx)
		require.Equal(t, 1, b.Subscribers())

		cancel()
		require.Eventually(t, func() bool { return b.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

		_, ok := <-sub.Receive(context.Background())
		assert.False(t, ok)
	})
}

func TestMemoryBroadcaster_Broadcast(t *testing.T) {
	t.Run("delivers to every subscriber", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](4)
		defer b.Close()

		ctx := context.Background()
		subs := []Subscriber[int]{b.Subscribe(ctx), b.Subscribe(ctx), b.Subscribe(ctx)}

		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 42}))

		for _, sub := range subs {
			select {
			case msg := <-sub.Receive(ctx):
				assert.Equal(t, 42, msg.Data)
			case <-time.After(time.Second):
				t.Fatal("message not delivered")
			}
		}
	})

	t.Run("late subscriber misses earlier messages", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](4)
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 1}))
		sub := b.Subscribe(ctx)
		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 2}))

		msg := <-sub.Receive(ctx)
		assert.Equal(t, 2, msg.Data)
	})

	t.Run("slow subscriber is dropped", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](1)
		defer b.Close()

		ctx := context.Background()
		slow := b.Subscribe(ctx)

		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 1}))
		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 2}))
		assert.Equal(t, 0, b.Subscribers())

		msg, ok := <-slow.Receive(ctx)
		require.True(t, ok)
		assert.Equal(t, 1, msg.Data)
		_, ok = <-slow.Receive(ctx)
		assert.False(t, ok)
	})

	t.Run("broadcast after close fails", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](1)
		require.NoError(t, b.Close())
		require.NoError(t, b.Close())

		err := b.Broadcast(context.Background(), Message[int]{Data: 1})
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestMemoryBroadcaster_Concurrent(t *testing.T) {
	b := NewMemoryBroadcaster[int](100)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const subscribers = 10
	const messages = 50

	var wg sync.WaitGroup
	counts := make([]int, subscribers)
	for i := range subscribers {
		sub := b.Subscribe(ctx)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range sub.Receive(ctx) {
				counts[i]++
				if counts[i] == messages {
					return
				}
			}
		}()
	}

	for i := range messages {
		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: i}))
	}
	wg.Wait()

	for _, c := range counts {
		assert.Equal(t, messages, c)
	}
}

func BenchmarkMemoryBroadcaster_Broadcast(b *testing.B) {
	br := NewMemoryBroadcaster[int](b.N + 1)
	defer br.Close()

	ctx := context.Background()
	for range 10 {
		br.Subscribe(ctx)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = br.Broadcast(ctx, Message[int]{Data: i})
	}
}
