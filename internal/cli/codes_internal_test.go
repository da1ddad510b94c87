package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authenticator/pkg/broadcast"
	"github.com/dmitrymomot/authenticator/pkg/item"
)

func receive(t *testing.T, ch <-chan broadcast.Message[[]item.ListItem]) (broadcast.Message[[]item.ListItem], bool) {
	t.Helper()
	select {
	case msg, ok := <-ch:
		return msg, ok
	case <-time.After(time.Second):
		t.Fatal("no batch received")
		return broadcast.Message[[]item.ListItem]{}, false
	}
}

func batch(id string) broadcast.Message[[]item.ListItem] {
	return broadcast.Message[[]item.ListItem]{Data: []item.ListItem{{ID: id}}}
}

func TestExpiredFeedResubscribesAfterDrop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := broadcast.NewMemoryBroadcaster[[]item.ListItem](1)
	defer b.Close()

	feed := newExpiredFeed(ctx, b.Subscribe)
	defer feed.close()

	// The second batch overflows the buffer and drops the subscriber.
	require.NoError(t, b.Broadcast(ctx, batch("a")))
	require.NoError(t, b.Broadcast(ctx, batch("b")))

	msg, ok := receive(t, feed.batches(ctx))
	require.True(t, ok)
	assert.Equal(t, "a", msg.Data[0].ID)
	feed.received = true

	_, ok = receive(t, feed.batches(ctx))
	require.False(t, ok)
	require.NoError(t, feed.resubscribe(ctx))

	require.NoError(t, b.Broadcast(ctx, batch("c")))
	msg, ok = receive(t, feed.batches(ctx))
	require.True(t, ok)
	assert.Equal(t, "c", msg.Data[0].ID)
}

func TestExpiredFeedStopsWhenSchedulerCloses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := broadcast.NewMemoryBroadcaster[[]item.ListItem](1)
	feed := newExpiredFeed(ctx, b.Subscribe)
	defer feed.close()

	require.NoError(t, b.Close())

	_, ok := receive(t, feed.batches(ctx))
	require.False(t, ok)
	assert.ErrorIs(t, feed.resubscribe(ctx), errWatchStopped)
}
