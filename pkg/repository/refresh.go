package repository

import (
	"context"
	"errors"

	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/logger"
	"github.com/dmitrymomot/authenticator/pkg/totp"
)

// RefreshCodes recomputes the current code of every item. An item without a
// code model, or whose key no longer produces a code, is returned unchanged
// and reported. The batch as a whole never fails.
func (r *Repository) RefreshCodes(ctx context.Context, items []item.ListItem) []item.ListItem {
	now := r.now()
	refreshed := make([]item.ListItem, len(items))
	for i, li := range items {
		refreshed[i] = li
		if li.TOTP == nil {
			r.reportRefresh(ctx, li.ID, ErrUnableToGenerateCode)
			continue
		}
		code, err := totp.GenerateCode(li.TOTP.View.Key(), now)
		if err != nil {
			r.reportRefresh(ctx, li.ID, errors.Join(ErrUnableToGenerateCode, err))
			continue
		}
		refreshed[i] = li.WithCode(code)
	}
	return refreshed
}

func (r *Repository) reportRefresh(ctx context.Context, id string, err error) {
	r.reporter.Report(ctx, err,
		logger.Component("repository"),
		logger.ItemID(id),
	)
}
