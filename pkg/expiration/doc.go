// Package expiration batches TOTP code refreshes.
//
// A Scheduler keeps the displayed items grouped by period and checks them on
// a short tick. All items whose window ended since the last tick are handed
// to the callback in a single batch, so items sharing a period are refreshed
// together and no refresh happens while every code is still valid.
//
//	sched := expiration.New(func(expired []item.ListItem) {
//		refreshed := repo.RefreshCodes(ctx, expired)
//		sections = item.UpdateSections(sections, refreshed)
//		sched.Configure(item.AllItems(sections))
//	})
//	defer sched.Stop()
//	sched.Configure(item.AllItems(sections))
package expiration
