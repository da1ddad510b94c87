package secrets

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ScopeLocal is the scope of the key protecting items stored on this install.
const ScopeLocal = "local"

// KeyStore persists the single root key of an install.
type KeyStore interface {
	// Load returns the stored root key or ErrKeyNotFound.
	Load(ctx context.Context) ([]byte, error)
	// Save stores the root key. It returns ErrKeyExists if a key is already stored.
	Save(ctx context.Context, key []byte) error
}

// KeyProvider hands out per-scope symmetric keys.
//
// The root key is created on first use and persisted through the KeyStore; scope
// keys are derived from it with HKDF, so one stored secret serves every scope.
// Creation is serialized: concurrent first callers all observe the same key.
type KeyProvider struct {
	store KeyStore

	mu     sync.Mutex
	root   []byte
	scoped map[string][]byte
}

// NewKeyProvider creates a provider backed by store.
// Panics if store is nil.
func NewKeyProvider(store KeyStore) *KeyProvider {
	if store == nil {
		panic("secrets: KeyStore is required")
	}
	return &KeyProvider{
		store:  store,
		scoped: make(map[string][]byte),
	}
}

// GetOrCreateKey returns the key for scope, creating the root key if none exists yet.
// The returned slice is a copy owned by the caller.
func (p *KeyProvider) GetOrCreateKey(ctx context.Context, scope string) ([]byte, error) {
	if scope == "" {
		return nil, ErrInvalidScope
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if key, ok := p.scoped[scope]; ok {
		return slices.Clone(key), nil
	}

	root, err := p.rootKey(ctx)
	if err != nil {
		return nil, err
	}

	key, err := deriveKey(root, scope)
	if err != nil {
		return nil, err
	}
	p.scoped[scope] = key

	return slices.Clone(key), nil
}

// Close wipes cached key material. The provider reloads from the store on next use.
func (p *KeyProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for scope, key := range p.scoped {
		clear(key)
		delete(p.scoped, scope)
	}
	clear(p.root)
	p.root = nil

	return nil
}

// rootKey must be called with p.mu held.
func (p *KeyProvider) rootKey(ctx context.Context) ([]byte, error) {
	if p.root != nil {
		return p.root, nil
	}

	key, err := p.store.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrKeyNotFound):
		key, err = p.createRootKey(ctx)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Join(ErrKeyStoreFailed, err)
	}

	if err := ValidateKey(key); err != nil {
		return nil, errors.Join(ErrKeyStoreFailed, err)
	}

	p.root = key
	return key, nil
}

func (p *KeyProvider) createRootKey(ctx context.Context) ([]byte, error) {
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}

	err = p.store.Save(ctx, key)
	switch {
	case err == nil:
		return key, nil
	case errors.Is(err, ErrKeyExists):
		// Another process won the race; use its key.
		clear(key)
		stored, err := p.store.Load(ctx)
		if err != nil {
			return nil, errors.Join(ErrKeyStoreFailed, err)
		}
		return stored, nil
	default:
		return nil, errors.Join(ErrKeyStoreFailed, err)
	}
}
