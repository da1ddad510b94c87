package item

import "errors"

var (
	ErrItemNotFound = errors.New("item: not found")
	ErrItemExists   = errors.New("item: already exists")
	ErrInvalidItem  = errors.New("item: invalid")

	ErrStoreUnavailable = errors.New("item: store unavailable")

	ErrInvalidItemID = errors.Join(ErrInvalidItem, errors.New("id is required"))
)
