package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of root and scope keys: AES-256.
const KeySize = 32

// hkdfSalt separates scope keys from anything else derived from the root key.
const hkdfSalt = "authenticator-item-keys-v1"

func ValidateKey(key []byte) error {
	if len(key) != KeySize {
		return ErrInvalidKey
	}
	return nil
}

// GenerateKey returns a new random root key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Join(ErrKeyGenerationFailed, err)
	}
	return key, nil
}

// deriveKey expands root into the key of scope with HKDF-SHA256.
func deriveKey(root []byte, scope string) ([]byte, error) {
	if err := ValidateKey(root); err != nil {
		return nil, err
	}
	if scope == "" {
		return nil, ErrInvalidScope
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, root, []byte(hkdfSalt), []byte(scope)), key); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return key, nil
}
