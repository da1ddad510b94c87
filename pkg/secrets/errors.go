package secrets

import "errors"

var (
	ErrInvalidKey   = errors.New("secrets: key must be 32 bytes")
	ErrInvalidScope = errors.New("secrets: key scope is empty")

	ErrEncryptionFailed  = errors.New("secrets: encryption failed")
	ErrDecryptionFailed  = errors.New("secrets: decryption failed")
	ErrInvalidCiphertext = errors.New("secrets: malformed sealed value")

	ErrKeyDerivationFailed = errors.New("secrets: key derivation failed")
	ErrKeyGenerationFailed = errors.New("secrets: key generation failed")
	ErrKeyNotFound         = errors.New("secrets: no root key stored")
	ErrKeyExists           = errors.New("secrets: root key already stored")
	ErrKeyStoreFailed      = errors.New("secrets: key store failed")
)
