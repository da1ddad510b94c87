package secrets

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// MemoryKeyStore keeps the root key in process memory.
// Useful for tests and ephemeral installs.
type MemoryKeyStore struct {
	mu  sync.RWMutex
	key []byte
}

// NewMemoryKeyStore creates an empty in-memory key store.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{}
}

func (s *MemoryKeyStore) Load(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return nil, ErrKeyNotFound
	}
	return slices.Clone(s.key), nil
}

func (s *MemoryKeyStore) Save(_ context.Context, key []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return ErrKeyExists
	}
	s.key = slices.Clone(key)
	return nil
}

// FileKeyStore keeps the root key base64-encoded in a file readable only by its owner.
type FileKeyStore struct {
	path string
}

// NewFileKeyStore creates a key store at path. The file is created on first Save.
func NewFileKeyStore(path string) *FileKeyStore {
	return &FileKeyStore{path: path}
}

func (s *FileKeyStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrKeyNotFound
		}
		return nil, errors.Join(ErrKeyStoreFailed, err)
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, errors.Join(ErrKeyStoreFailed, err)
	}
	return key, nil
}

// Save writes key with O_EXCL so an existing key is never overwritten.
func (s *FileKeyStore) Save(_ context.Context, key []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Join(ErrKeyStoreFailed, err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrKeyExists
		}
		return errors.Join(ErrKeyStoreFailed, err)
	}

	_, werr := f.WriteString(base64.StdEncoding.EncodeToString(key) + "\n")
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(s.path)
		return errors.Join(ErrKeyStoreFailed, err)
	}
	return nil
}
