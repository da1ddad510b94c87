package item_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/logger"
	"github.com/dmitrymomot/authenticator/pkg/pg"
)

func next(t *testing.T, ch <-chan []item.Item) []item.Item {
	t.Helper()
	select {
	case items, ok := <-ch:
		require.True(t, ok, "change stream closed")
		return items
	case <-time.After(2 * time.Second):
		t.Fatal("no change emitted")
		return nil
	}
}

func ids(items []item.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// runStoreContract exercises behaviour every Store implementation shares.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) item.Store) {
	ctx := context.Background()

	t.Run("crud", func(t *testing.T) {
		s := newStore(t)

		b := item.Item{ID: "b", Name: "sealed-b", TOTPKey: item.Ptr("sealed-key")}
		a := item.Item{ID: "a", Favorite: true, Name: "sealed-a", Username: item.Ptr("sealed-user")}
		require.NoError(t, s.Add(ctx, b))
		require.NoError(t, s.Add(ctx, a))
		assert.ErrorIs(t, s.Add(ctx, a), item.ErrItemExists)

		got, err := s.Fetch(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, a, got)

		all, err := s.FetchAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(all))
		assert.Nil(t, all[1].Username)
		assert.Equal(t, "sealed-key", *all[1].TOTPKey)

		b.Name = "sealed-b2"
		b.TOTPKey = nil
		require.NoError(t, s.Update(ctx, b))
		got, err = s.Fetch(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, b, got)

		require.NoError(t, s.Delete(ctx, "a"))
		_, err = s.Fetch(ctx, "a")
		assert.ErrorIs(t, err, item.ErrItemNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "a"), item.ErrItemNotFound)
		assert.ErrorIs(t, s.Update(ctx, item.Item{ID: "missing", Name: "x"}), item.ErrItemNotFound)
	})

	t.Run("rejects empty id", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.Add(ctx, item.Item{Name: "x"}), item.ErrInvalidItem)
		assert.ErrorIs(t, s.Update(ctx, item.Item{ID: " ", Name: "x"}), item.ErrInvalidItem)
	})

	t.Run("changes replay then follow mutations", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(ctx, item.Item{ID: "1", Name: "one"}))

		cctx, cancel := context.WithCancel(ctx)
		defer cancel()
		changes, err := s.Changes(cctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"1"}, ids(next(t, changes)))

		require.NoError(t, s.Add(ctx, item.Item{ID: "2", Name: "two"}))
		assert.Equal(t, []string{"1", "2"}, ids(next(t, changes)))

		require.NoError(t, s.Delete(ctx, "1"))
		assert.Equal(t, []string{"2"}, ids(next(t, changes)))

		cancel()
		require.Eventually(t, func() bool {
			_, ok := <-changes
			return !ok
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("empty store replays empty collection", func(t *testing.T) {
		s := newStore(t)
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()
		changes, err := s.Changes(cctx)
		require.NoError(t, err)
		assert.Empty(t, next(t, changes))
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	runStoreContract(t, func(t *testing.T) item.Store {
		s := item.NewMemoryStore()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})

	t.Run("stored items are copies", func(t *testing.T) {
		key := "sealed"
		s := item.NewMemoryStore(item.Item{ID: "1", Name: "n", TOTPKey: &key})
		key = "mutated"

		got, err := s.Fetch(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, "sealed", *got.TOTPKey)
	})
}

func TestSQLStore(t *testing.T) {
	t.Parallel()
	runStoreContract(t, func(t *testing.T) item.Store {
		s, err := item.OpenSQLite(context.Background(), ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})

	t.Run("persists across reopen", func(t *testing.T) {
		ctx := context.Background()
		path := t.TempDir() + "/items.db"

		s, err := item.OpenSQLite(ctx, path)
		require.NoError(t, err)
		require.NoError(t, s.Add(ctx, item.Item{ID: "1", Name: "sealed", Favorite: true}))
		require.NoError(t, s.Close())

		s, err = item.OpenSQLite(ctx, path)
		require.NoError(t, err)
		defer s.Close()

		got, err := s.Fetch(ctx, "1")
		require.NoError(t, err)
		assert.True(t, got.Favorite)
	})
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		t.Skip("PG_CONN_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString: url,
		MaxOpenConns:     4,
		RetryAttempts:    1,
		MigrationsTable:  "authenticator_test_migrations",
	}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	runStoreContract(t, func(t *testing.T) item.Store {
		s, err := item.NewPostgresStore(ctx, pool, cfg, logger.Discard())
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `TRUNCATE authenticator_items`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
