// Package cryptography seals the sensitive fields of authenticator items.
//
// Each present field is sealed on its own with AES-256-GCM under the key the
// KeyProvider returns for the configured scope, with a fresh nonce every time.
// Encrypting the same view twice therefore gives different items that decrypt
// to the same view.
package cryptography
