package broadcast

import "errors"

// ErrClosed is returned when publishing to a closed broadcaster or state.
var ErrClosed = errors.New("broadcast: closed")
