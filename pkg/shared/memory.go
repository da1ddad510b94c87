package shared

import (
	"context"
	"slices"
	"sync/atomic"

	"github.com/dmitrymomot/authenticator/pkg/broadcast"
)

// MemorySource is a Source whose content is set programmatically.
// The zero value is not usable; call NewMemorySource.
type MemorySource struct {
	items       *broadcast.State[[]Item]
	syncEnabled atomic.Bool
}

// NewMemorySource returns a source holding items, with sync turned off.
func NewMemorySource(items ...Item) *MemorySource {
	return &MemorySource{items: broadcast.NewStateOf(slices.Clone(items))}
}

func (s *MemorySource) IsSyncEnabled(context.Context) (bool, error) {
	return s.syncEnabled.Load(), nil
}

func (s *MemorySource) Items(ctx context.Context) (<-chan []Item, error) {
	return s.items.Values(ctx), nil
}

// SetItems replaces the shared collection.
func (s *MemorySource) SetItems(items []Item) error {
	return s.items.Set(slices.Clone(items))
}

// SetSyncEnabled toggles the sync flag. Item streams re-emit the current
// collection so subscribers re-evaluate it.
func (s *MemorySource) SetSyncEnabled(enabled bool) error {
	s.syncEnabled.Store(enabled)
	current, _ := s.items.Get()
	return s.items.Set(current)
}

// Close ends every item stream.
func (s *MemorySource) Close() error {
	return s.items.Close()
}
