package recognition

import "errors"

// Sentinel kinds for recognition errors.
var (
	ErrNoEncoder = errors.New("no encoder configured")
	ErrEncode    = errors.New("encode failed")
)
