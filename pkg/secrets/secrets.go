package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// sealVersion is the first byte of every sealed value.
const sealVersion byte = 1

// Seal encrypts plaintext with AES-256-GCM. label is authenticated but not
// stored: Open needs the same label, so a value copied to another item or
// field no longer opens. The result is base64(version || nonce || ciphertext || tag)
// with a fresh random nonce per call.
func Seal(key []byte, plaintext, label string) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	n := aead.NonceSize()
	out := make([]byte, 1+n, 1+n+len(plaintext)+aead.Overhead())
	out[0] = sealVersion
	nonce := out[1:]
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	out = aead.Seal(out, nonce, []byte(plaintext), []byte(label))
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal for the same key and label.
func Open(key []byte, sealed, label string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}

	aead, err := newGCM(key)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}

	n := aead.NonceSize()
	if len(raw) < 1+n+aead.Overhead() {
		return "", ErrInvalidCiphertext
	}
	if raw[0] != sealVersion {
		return "", fmt.Errorf("%w: unknown version %d", ErrInvalidCiphertext, raw[0])
	}

	plain, err := aead.Open(nil, raw[1:1+n], raw[1+n:], []byte(label))
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}
	return string(plain), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
