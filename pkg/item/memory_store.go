package item

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStore keeps items in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Item
	feed  *changeFeed
}

// NewMemoryStore creates a store seeded with items.
func NewMemoryStore(items ...Item) *MemoryStore {
	s := &MemoryStore{items: make(map[string]Item, len(items))}
	for _, it := range items {
		s.items[it.ID] = it.Clone()
	}
	s.feed = newChangeFeed(s.FetchAll)
	return s
}

func (s *MemoryStore) Add(ctx context.Context, it Item) error {
	if err := it.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if _, exists := s.items[it.ID]; exists {
		s.mu.Unlock()
		return ErrItemExists
	}
	s.items[it.ID] = it.Clone()
	s.mu.Unlock()

	return s.feed.publish(ctx)
}

func (s *MemoryStore) Update(ctx context.Context, it Item) error {
	if err := it.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if _, exists := s.items[it.ID]; !exists {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	s.items[it.ID] = it.Clone()
	s.mu.Unlock()

	return s.feed.publish(ctx)
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, exists := s.items[id]; !exists {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	delete(s.items, id)
	s.mu.Unlock()

	return s.feed.publish(ctx)
}

func (s *MemoryStore) Fetch(ctx context.Context, id string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, exists := s.items[id]
	if !exists {
		return Item{}, ErrItemNotFound
	}
	return it.Clone(), nil
}

func (s *MemoryStore) FetchAll(ctx context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Item, 0, len(s.items))
	for _, id := range slices.Sorted(maps.Keys(s.items)) {
		items = append(items, s.items[id].Clone())
	}
	return items, nil
}

func (s *MemoryStore) Changes(ctx context.Context) (<-chan []Item, error) {
	return s.feed.subscribe(ctx)
}

// Close ends every change stream.
func (s *MemoryStore) Close() error {
	return s.feed.close()
}
