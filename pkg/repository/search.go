package repository

import (
	"context"

	"github.com/dmitrymomot/authenticator/pkg/broadcast"
	"github.com/dmitrymomot/authenticator/pkg/fold"
	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/logger"
)

// SearchResult is one emission of a search.
type SearchResult struct {
	Items []item.ListItem
	Err   error
}

// Search streams the local items whose name contains the latest query,
// ignoring case and diacritics, sorted by name. Results are recomputed on
// every store change and every new query. The channel closes when ctx is
// done.
func (r *Repository) Search(ctx context.Context, queries <-chan string) <-chan SearchResult {
	out := make(chan SearchResult)

	go func() {
		defer close(out)

		local, err := r.store.Changes(ctx)
		if err != nil {
			send(ctx, out, SearchResult{Err: err})
			return
		}

		for pair := range broadcast.CombineLatest(ctx, local, queries) {
			items, err := r.search(ctx, pair.First, pair.Second)
			if err != nil {
				r.log.ErrorContext(ctx, "search failed", logger.Error(err))
			}
			if !send(ctx, out, SearchResult{Items: items, Err: err}) {
				return
			}
		}
	}()

	return out
}

// SearchStream is Search with a single fixed query.
func (r *Repository) SearchStream(ctx context.Context, text string) <-chan SearchResult {
	queries := make(chan string, 1)
	queries <- text
	close(queries)
	return r.Search(ctx, queries)
}

func (r *Repository) search(ctx context.Context, local []item.Item, text string) ([]item.ListItem, error) {
	views, err := r.decryptAll(ctx, local)
	if err != nil {
		return nil, err
	}

	query := fold.String(text)
	p := r.newProjector()
	matches := make([]item.ListItem, 0, len(views))
	for _, v := range views {
		if !fold.Contains(v.Name, query) {
			continue
		}
		if li, ok := p.project(v); ok {
			matches = append(matches, li)
		}
	}
	p.report(ctx)

	sortByName(matches)
	return matches, nil
}
