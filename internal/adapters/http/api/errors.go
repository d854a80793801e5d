package api

import "errors"

// ErrServe is returned when the HTTP server fails.
var ErrServe = errors.New("http serve failed")
