package repository

import "errors"

var (
	// ErrUnableToGenerateCode is reported when a stored key no longer yields a code.
	ErrUnableToGenerateCode = errors.New("repository: unable to generate code")

	ErrInvalidView = errors.New("repository: invalid item")
)
