package codec

import "errors"

// Sentinel kinds for decode errors. All of them are per-message and
// recoverable: the caller logs and discards the payload.
var (
	ErrMalformedCDR    = errors.New("malformed cdr payload")
	ErrMalformedBox    = errors.New("malformed box payload")
	ErrMalformedVector = errors.New("malformed vector payload")
	ErrMalformedLabel  = errors.New("malformed label payload")
)
