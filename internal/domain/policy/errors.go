package policy

import "errors"

// Sentinel kinds for policy errors.
var (
	ErrUnknownDirection = errors.New("unknown direction")
)
