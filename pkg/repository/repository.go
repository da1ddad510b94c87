package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/authenticator/pkg/async"
	"github.com/dmitrymomot/authenticator/pkg/cryptography"
	"github.com/dmitrymomot/authenticator/pkg/feature"
	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/logger"
	"github.com/dmitrymomot/authenticator/pkg/shared"
)

// Repository serves plaintext item views on top of an encrypted store.
// It keeps no plaintext between calls; every result is derived from the
// latest encrypted snapshot.
type Repository struct {
	store    item.Store
	crypto   cryptography.Service
	shared   shared.Source
	flags    feature.Provider
	reporter logger.ErrorReporter
	log      *slog.Logger
	now      func() time.Time
}

// New returns a repository over store, sealing fields with crypto.
// Panics if either is nil.
func New(store item.Store, crypto cryptography.Service, opts ...Option) *Repository {
	if store == nil {
		panic("repository: item store is required")
	}
	if crypto == nil {
		panic("repository: cryptography service is required")
	}
	r := &Repository{
		store:  store,
		crypto: crypto,
		log:    logger.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.reporter == nil {
		r.reporter = logger.NewErrorReporter(r.log)
	}
	return r
}

// Add encrypts v and stores it as a new item.
func (r *Repository) Add(ctx context.Context, v item.View) error {
	it, err := r.seal(ctx, v)
	if err != nil {
		return err
	}
	if err := r.store.Add(ctx, it); err != nil {
		return err
	}
	r.log.DebugContext(ctx, "item added", logger.ItemID(v.ID))
	return nil
}

// Update encrypts v and replaces the stored item with the same ID.
func (r *Repository) Update(ctx context.Context, v item.View) error {
	it, err := r.seal(ctx, v)
	if err != nil {
		return err
	}
	if err := r.store.Update(ctx, it); err != nil {
		return err
	}
	r.log.DebugContext(ctx, "item updated", logger.ItemID(v.ID))
	return nil
}

// Delete removes the item with the given ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}
	r.log.DebugContext(ctx, "item deleted", logger.ItemID(id))
	return nil
}

// Fetch returns the decrypted item with the given ID.
// Returns item.ErrItemNotFound when there is none.
func (r *Repository) Fetch(ctx context.Context, id string) (item.View, error) {
	it, err := r.store.Fetch(ctx, id)
	if err != nil {
		return item.View{}, err
	}
	return r.crypto.Decrypt(ctx, it)
}

// FetchAll returns every stored item decrypted. A single item that fails to
// decrypt fails the whole call.
func (r *Repository) FetchAll(ctx context.Context) ([]item.View, error) {
	items, err := r.store.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return r.decryptAll(ctx, items)
}

func (r *Repository) seal(ctx context.Context, v item.View) (item.Item, error) {
	if v.ID == "" {
		return item.Item{}, errors.Join(ErrInvalidView, item.ErrInvalidItemID)
	}
	return r.crypto.Encrypt(ctx, v)
}

func (r *Repository) decryptAll(ctx context.Context, items []item.Item) ([]item.View, error) {
	return async.Map(ctx, items, r.crypto.Decrypt)
}

// syncEnabled reports whether shared items take part in the list. Both the
// feature flag and the companion's own setting must be on.
func (r *Repository) syncEnabled(ctx context.Context) bool {
	if r.shared == nil || !feature.Bool(ctx, r.flags, feature.FlagPasswordManagerSync, false) {
		return false
	}
	enabled, err := r.shared.IsSyncEnabled(ctx)
	if err != nil {
		r.reporter.Report(ctx, err, logger.Component("repository"))
		return false
	}
	return enabled
}

// sharedItems streams the companion's items, or a single empty collection
// when no source is configured.
func (r *Repository) sharedItems(ctx context.Context) (<-chan []shared.Item, error) {
	if r.shared == nil {
		ch := make(chan []shared.Item, 1)
		ch <- nil
		close(ch)
		return ch, nil
	}
	return r.shared.Items(ctx)
}

// send delivers v unless ctx ends first.
func send[T any](ctx context.Context, out chan<- T, v T) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
