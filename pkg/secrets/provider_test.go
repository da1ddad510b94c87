package secrets_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authenticator/pkg/secrets"
)

type mockKeyStore struct {
	mock.Mock
}

func (m *mockKeyStore) Load(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockKeyStore) Save(ctx context.Context, key []byte) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestKeyProvider_GetOrCreateKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates and persists root key on first use", func(t *testing.T) {
		t.Parallel()
		store := secrets.NewMemoryKeyStore()
		p := secrets.NewKeyProvider(store)

		key, err := p.GetOrCreateKey(ctx, secrets.ScopeLocal)
		require.NoError(t, err)
		require.Len(t, key, secrets.KeySize)

		root, err := store.Load(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, root, key, "scope key is derived, not the root key")
	})

	t.Run("stable across providers sharing a store", func(t *testing.T) {
		t.Parallel()
		store := secrets.NewMemoryKeyStore()

		first, err := secrets.NewKeyProvider(store).GetOrCreateKey(ctx, secrets.ScopeLocal)
		require.NoError(t, err)
		second, err := secrets.NewKeyProvider(store).GetOrCreateKey(ctx, secrets.ScopeLocal)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("scopes yield different keys", func(t *testing.T) {
		t.Parallel()
		p := secrets.NewKeyProvider(secrets.NewMemoryKeyStore())

		local, err := p.GetOrCreateKey(ctx, secrets.ScopeLocal)
		require.NoError(t, err)
		account, err := p.GetOrCreateKey(ctx, "account:alice")
		require.NoError(t, err)
		assert.NotEqual(t, local, account)
	})

	t.Run("empty scope rejected", func(t *testing.T) {
		t.Parallel()
		p := secrets.NewKeyProvider(secrets.NewMemoryKeyStore())
		_, err := p.GetOrCreateKey(ctx, "")
		require.ErrorIs(t, err, secrets.ErrInvalidScope)
	})

	t.Run("returned key is a copy", func(t *testing.T) {
		t.Parallel()
		p := secrets.NewKeyProvider(secrets.NewMemoryKeyStore())
		key, err := p.GetOrCreateKey(ctx, secrets.ScopeLocal)
		require.NoError(t, err)
		want := append([]byte(nil), key...)
		key[0] ^= 0xff

		again, err := p.GetOrCreateKey(ctx, secrets.ScopeLocal)
		require.NoError(t, err)
		assert.Equal(t, want, again)
	})
}

func TestKeyProvider_ConcurrentFirstUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := secrets.NewMemoryKeyStore()
	p := secrets.NewKeyProvider(store)

	const workers = 32
	keys := make([][]byte, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key, err := p.GetOrCreateKey(ctx, secrets.ScopeLocal)
			assert.NoError(t, err)
			keys[i] = key
		}()
	}
	wg.Wait()

	for _, key := range keys[1:] {
		assert.Equal(t, keys[0], key)
	}
}

func TestKeyProvider_StoreErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("load failure propagates", func(t *testing.T) {
		t.Parallel()
		store := &mockKeyStore{}
		boom := errors.New("keychain locked")
		store.On("Load", mock.Anything).Return(nil, boom)

		_, err := secrets.NewKeyProvider(store).GetOrCreateKey(ctx, secrets.ScopeLocal)
		require.ErrorIs(t, err, secrets.ErrKeyStoreFailed)
		require.ErrorIs(t, err, boom)
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("lost creation race reloads the winner's key", func(t *testing.T) {
		t.Parallel()
		winner, err := secrets.GenerateKey()
		require.NoError(t, err)

		store := &mockKeyStore{}
		store.On("Load", mock.Anything).Return(nil, secrets.ErrKeyNotFound).Once()
		store.On("Save", mock.Anything, mock.Anything).Return(secrets.ErrKeyExists).Once()
		store.On("Load", mock.Anything).Return(winner, nil).Once()

		p := secrets.NewKeyProvider(store)
		got, err := p.GetOrCreateKey(ctx, secrets.ScopeLocal)
		require.NoError(t, err)

		expected, err := secrets.NewKeyProvider(preloaded(t, winner)).GetOrCreateKey(ctx, secrets.ScopeLocal)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
		store.AssertExpectations(t)
	})

	t.Run("corrupt stored key rejected", func(t *testing.T) {
		t.Parallel()
		store := &mockKeyStore{}
		store.On("Load", mock.Anything).Return([]byte("short"), nil)

		_, err := secrets.NewKeyProvider(store).GetOrCreateKey(ctx, secrets.ScopeLocal)
		require.ErrorIs(t, err, secrets.ErrInvalidKey)
	})
}

func TestKeyProvider_Close(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := secrets.NewKeyProvider(secrets.NewMemoryKeyStore())

	before, err := p.GetOrCreateKey(ctx, secrets.ScopeLocal)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	after, err := p.GetOrCreateKey(ctx, secrets.ScopeLocal)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileKeyStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keys", "root.key")
	store := secrets.NewFileKeyStore(path)

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, secrets.ErrKeyNotFound)

	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, key))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, key, loaded)

	other, err := secrets.GenerateKey()
	require.NoError(t, err)
	require.ErrorIs(t, store.Save(ctx, other), secrets.ErrKeyExists)

	p := secrets.NewKeyProvider(secrets.NewFileKeyStore(path))
	_, err = p.GetOrCreateKey(ctx, secrets.ScopeLocal)
	require.NoError(t, err)
}

func preloaded(t *testing.T, key []byte) *secrets.MemoryKeyStore {
	t.Helper()
	store := secrets.NewMemoryKeyStore()
	require.NoError(t, store.Save(context.Background(), key))
	return store
}
