package totp

import "errors"

var (
	ErrInvalidKeyFormat   = errors.New("totp: invalid key format")
	ErrUnsupportedKeyType = errors.New("totp: unsupported OTP key type")
	ErrMissingSecret      = errors.New("totp: missing secret")
	ErrInvalidSecret      = errors.New("totp: invalid secret")
	ErrRandom             = errors.New("totp: cannot read random bytes")
	ErrInvalidOTP         = errors.New("totp: invalid OTP format")
)
