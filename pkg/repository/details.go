package repository

import (
	"context"

	"github.com/dmitrymomot/authenticator/pkg/item"
)

// DetailsResult is one emission of an item details stream. View is nil once
// the item no longer exists.
type DetailsResult struct {
	View *item.View
	Err  error
}

// ItemDetails streams the decrypted item with the given ID, re-reading it on
// every store change. The channel closes when ctx is done.
func (r *Repository) ItemDetails(ctx context.Context, id string) <-chan DetailsResult {
	out := make(chan DetailsResult)

	go func() {
		defer close(out)

		local, err := r.store.Changes(ctx)
		if err != nil {
			send(ctx, out, DetailsResult{Err: err})
			return
		}

		for items := range local {
			res := r.details(ctx, items, id)
			if !send(ctx, out, res) {
				return
			}
		}
	}()

	return out
}

func (r *Repository) details(ctx context.Context, items []item.Item, id string) DetailsResult {
	for _, it := range items {
		if it.ID != id {
			continue
		}
		v, err := r.crypto.Decrypt(ctx, it)
		if err != nil {
			return DetailsResult{Err: err}
		}
		return DetailsResult{View: &v}
	}
	return DetailsResult{}
}
