package feature

import "context"

// FlagPasswordManagerSync gates merging items shared by the password manager
// into the item list.
const FlagPasswordManagerSync = "enable-password-manager-sync"

// Provider resolves feature flags.
type Provider interface {
	// IsEnabled reports whether the named flag is on. Unknown flags fail with
	// ErrFlagNotFound.
	IsEnabled(ctx context.Context, name string) (bool, error)
}

// Bool resolves name through p, falling back to def when p is nil or the
// flag cannot be resolved.
func Bool(ctx context.Context, p Provider, name string, def bool) bool {
	if p == nil {
		return def
	}
	enabled, err := p.IsEnabled(ctx, name)
	if err != nil {
		return def
	}
	return enabled
}
