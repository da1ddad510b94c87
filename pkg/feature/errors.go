package feature

import "errors"

var (
	ErrFlagNotFound = errors.New("feature: unknown flag")
	ErrInvalidFlag  = errors.New("feature: invalid flag")
	ErrInvalidFile  = errors.New("feature: invalid flag file")
)
