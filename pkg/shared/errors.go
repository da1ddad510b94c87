package shared

import "errors"

var (
	ErrSourceUnavailable = errors.New("shared: source unavailable")
	ErrInvalidPayload    = errors.New("shared: invalid payload")
)
