package bus

import "errors"

// Sentinel kinds for bus errors.
var (
	ErrUnknownKey     = errors.New("unknown bus key")
	ErrInvalidPattern = errors.New("invalid key expression")
	ErrClosed         = errors.New("bus closed")
	ErrConnect        = errors.New("bus connect failed")
)
