package exporter

import "errors"

var (
	ErrUnableToSerializeData = errors.New("exporter: unable to serialize data")
	ErrMissingKey            = errors.New("exporter: item has no key")
)
