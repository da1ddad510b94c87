package cryptography

import "errors"

var (
	ErrUnableToEncryptRequiredField = errors.New("cryptography: unable to encrypt required field")
	ErrUnableToEncryptField         = errors.New("cryptography: unable to encrypt field")
	ErrUnableToReadEncryptedData    = errors.New("cryptography: unable to read encrypted data")
	ErrUnableToReadDecryptedData    = errors.New("cryptography: unable to read decrypted data")
	ErrUnableToRetrieveKey          = errors.New("cryptography: unable to retrieve key")
)
