package shared

import (
	"context"
)

// Item is an authenticator item exposed by the companion password manager.
// Fields are plaintext; the companion owns their protection.
type Item struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Username  *string `json:"username,omitempty"`
	TOTPKey   *string `json:"totpKey,omitempty"`
	Favorite  bool    `json:"favorite"`
	AccountID string  `json:"accountId"`
}

// Source is a read-only feed of items shared by the companion app.
type Source interface {
	// IsSyncEnabled reports whether the user turned sync on for any account.
	IsSyncEnabled(ctx context.Context) (bool, error)

	// Items streams the shared collection: first the current one, then every
	// change. The channel closes when ctx is done or the source is closed.
	Items(ctx context.Context) (<-chan []Item, error)
}
