package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrInvalidKey    = errors.New("invalid store key")
	ErrEmptyPayload  = errors.New("empty payload")
	ErrEmptyEncoding = errors.New("empty encoding")
)
