package repository

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/dmitrymomot/authenticator/pkg/broadcast"
	"github.com/dmitrymomot/authenticator/pkg/fold"
	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/logger"
	"github.com/dmitrymomot/authenticator/pkg/shared"
	"github.com/dmitrymomot/authenticator/pkg/totp"
)

// ListResult is one emission of the item list. Err is set when the
// emission could not be built; the stream stays open.
type ListResult struct {
	Sections []item.ListSection
	Err      error
}

// ItemList streams the sectioned item list. A new list is built whenever the
// local store or the shared source changes, always from the latest value of
// both. The channel closes when ctx is done.
func (r *Repository) ItemList(ctx context.Context) <-chan ListResult {
	out := make(chan ListResult)

	go func() {
		defer close(out)

		local, err := r.store.Changes(ctx)
		if err != nil {
			send(ctx, out, ListResult{Err: err})
			return
		}
		synced, err := r.sharedItems(ctx)
		if err != nil {
			send(ctx, out, ListResult{Err: err})
			return
		}

		for pair := range broadcast.CombineLatest(ctx, local, synced) {
			sections, err := r.sections(ctx, pair.First, pair.Second)
			if err != nil {
				r.log.ErrorContext(ctx, "failed to build item list", logger.Error(err))
			}
			if !send(ctx, out, ListResult{Sections: sections, Err: err}) {
				return
			}
		}
	}()

	return out
}

// sections decrypts, sorts and groups one snapshot of local and shared items.
func (r *Repository) sections(ctx context.Context, local []item.Item, sharedItems []shared.Item) ([]item.ListSection, error) {
	views, err := r.decryptAll(ctx, local)
	if err != nil {
		return nil, err
	}
	fold.SortFunc(views, func(v item.View) string { return v.Name })

	p := r.newProjector()
	var favorites, others []item.ListItem
	for _, v := range views {
		li, ok := p.project(v)
		if !ok {
			continue
		}
		if v.Favorite {
			favorites = append(favorites, li)
		} else {
			others = append(others, li)
		}
	}

	if !r.syncEnabled(ctx) {
		p.report(ctx)
		return nonEmpty(
			item.ListSection{ID: item.SectionFavorites, Name: item.FavoritesName, Items: favorites},
			item.ListSection{ID: item.SectionUnorganized, Name: "", Items: others},
		), nil
	}

	byAccount := make(map[string][]item.ListItem)
	for _, s := range sharedItems {
		li, ok := p.project(sharedView(s))
		if !ok {
			continue
		}
		if s.Favorite {
			favorites = append(favorites, li)
			continue
		}
		byAccount[s.AccountID] = append(byAccount[s.AccountID], li)
	}
	p.report(ctx)

	sortByName(favorites)
	sections := []item.ListSection{
		{ID: item.SectionFavorites, Name: item.FavoritesName, Items: favorites},
		{ID: item.SectionLocalCodes, Name: item.LocalCodesName, Items: others},
	}

	accounts := make([]string, 0, len(byAccount))
	for account := range byAccount {
		accounts = append(accounts, account)
	}
	slices.Sort(accounts)
	for _, account := range accounts {
		items := byAccount[account]
		sortByName(items)
		sections = append(sections, item.ListSection{
			ID:    item.SyncedSectionID(account),
			Name:  account,
			Items: items,
		})
	}

	return nonEmpty(sections...), nil
}

func sharedView(s shared.Item) item.View {
	return item.View{
		ID:       s.ID,
		Favorite: s.Favorite,
		Name:     s.Name,
		TOTPKey:  s.TOTPKey,
		Username: s.Username,
	}
}

func sortByName(items []item.ListItem) {
	fold.SortFunc(items, func(li item.ListItem) string { return li.Name })
}

func nonEmpty(sections ...item.ListSection) []item.ListSection {
	return slices.DeleteFunc(sections, func(s item.ListSection) bool {
		return len(s.Items) == 0
	})
}

// projector turns views into list items at a fixed instant and collects the
// IDs of items whose key does not produce a code.
type projector struct {
	now      time.Time
	reporter logger.ErrorReporter
	failed   []string
}

func (r *Repository) newProjector() *projector {
	return &projector{now: r.now(), reporter: r.reporter}
}

func (p *projector) project(v item.View) (item.ListItem, bool) {
	if v.TOTPKey == nil {
		return item.ListItem{}, false
	}
	code, err := totp.GenerateCode(v.Key(), p.now)
	if err != nil {
		p.failed = append(p.failed, v.ID)
		return item.ListItem{}, false
	}
	return item.NewListItem(v, code), true
}

// report sends one error for every item left out since the last report.
func (p *projector) report(ctx context.Context) {
	if len(p.failed) == 0 {
		return
	}
	p.reporter.Report(ctx, ErrUnableToGenerateCode,
		logger.Component("repository"),
		logger.Count(len(p.failed)),
		slog.Any("item_ids", p.failed),
	)
	p.failed = nil
}
