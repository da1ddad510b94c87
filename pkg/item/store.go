package item

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrymomot/authenticator/pkg/broadcast"
)

// Store persists encrypted items.
type Store interface {
	// Add stores a new item. Returns ErrItemExists if the ID is taken.
	Add(ctx context.Context, it Item) error

	// Update replaces an existing item. Returns ErrItemNotFound if absent.
	Update(ctx context.Context, it Item) error

	// Delete removes an item by ID. Returns ErrItemNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Fetch returns the item with the given ID or ErrItemNotFound.
	Fetch(ctx context.Context, id string) (Item, error)

	// FetchAll returns every item ordered by ID.
	FetchAll(ctx context.Context) ([]Item, error)

	// Changes streams the full collection: first the current one, then the
	// result of every mutation. Slow readers only see the newest collection.
	// The channel closes when ctx is done or the store is closed.
	Changes(ctx context.Context) (<-chan []Item, error)
}

// changeFeed republishes a store's collection after every mutation.
type changeFeed struct {
	state *broadcast.State[[]Item]
	load  func(ctx context.Context) ([]Item, error)
	mu    sync.Mutex
}

func newChangeFeed(load func(ctx context.Context) ([]Item, error)) *changeFeed {
	return &changeFeed{
		state: broadcast.NewState[[]Item](),
		load:  load,
	}
}

// publish reloads the collection and pushes it to subscribers. Loads are
// serialized so a slower, older load can never overwrite a newer one.
// Mutations call it after committing, so the reload ignores cancellation
// of the caller's context.
func (f *changeFeed) publish(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	if err := f.state.Set(items); err != nil && !errors.Is(err, broadcast.ErrClosed) {
		return err
	}
	return nil
}

func (f *changeFeed) subscribe(ctx context.Context) (<-chan []Item, error) {
	if _, ok := f.state.Get(); !ok {
		if err := f.publish(ctx); err != nil {
			return nil, err
		}
	}
	return f.state.Values(ctx), nil
}

func (f *changeFeed) close() error {
	return f.state.Close()
}
