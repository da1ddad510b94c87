// Package repository is the read and write path for authenticator items.
//
// A Repository encrypts views on the way into an item.Store and decrypts
// them on the way out. Besides CRUD it offers live streams: ItemList groups
// local and shared items into display sections, Search filters local items
// by a folded name match, and ItemDetails follows a single item. RefreshCodes
// recomputes TOTP codes for items whose window has rolled over.
//
// Batch decryption is all-or-nothing: one item that fails to decrypt fails
// the whole emission, which then carries the error instead of sections.
//
//	repo := repository.New(store, crypto,
//		repository.WithSharedSource(src),
//		repository.WithFeatureFlags(flags),
//		repository.WithLogger(log),
//	)
//	for res := range repo.ItemList(ctx) {
//		if res.Err != nil {
//			continue
//		}
//		render(res.Sections)
//	}
package repository
