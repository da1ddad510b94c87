package importer

import "errors"

var (
	ErrUnsupportedFormat = errors.New("importer: unsupported format")
	ErrInvalidData       = errors.New("importer: invalid data")
	ErrEncryptedExport   = errors.New("importer: encrypted exports are not supported")
)
