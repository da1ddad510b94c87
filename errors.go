package authenticator

import "errors"

var (
	ErrInvalidConfig = errors.New("authenticator: invalid configuration")
	ErrSetupFailed   = errors.New("authenticator: setup failed")
)
