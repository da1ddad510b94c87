// Package secrets manages the symmetric keys that protect authenticator items at
// rest and seals individual values with AES-256-GCM.
//
// A KeyProvider owns one 32-byte root key per install, persisted through a
// KeyStore (MemoryKeyStore, FileKeyStore). Keys for a scope such as ScopeLocal are
// derived from the root key with HKDF-SHA-256, so only one secret is ever stored.
// The first call to GetOrCreateKey creates the root key under a mutex; concurrent
// callers always observe the same key.
//
// Sealed values are self-contained: base64(version || nonce || ciphertext || tag),
// with a fresh random nonce per call. Each value is bound to a label, such as
// the item ID and field name, that must be repeated to open it.
//
// # Usage
//
//	provider := secrets.NewKeyProvider(secrets.NewFileKeyStore("/var/lib/authenticator/root.key"))
//	key, err := provider.GetOrCreateKey(ctx, secrets.ScopeLocal)
//	if err != nil {
//	    // handle error
//	}
//
//	sealed, err := secrets.Seal(key, "JBSWY3DPEHPK3PXP", itemID+"/totp_key")
//	plain, err := secrets.Open(key, sealed, itemID+"/totp_key")
//
// # Error Handling
//
// All public functions return errors that wrap a sentinel such as
// ErrEncryptionFailed, ErrDecryptionFailed, ErrInvalidCiphertext or
// ErrKeyStoreFailed. Use errors.Is to match against these sentinels.
package secrets
