package service

import "errors"

// Sentinel errors of the service lifecycle.
var (
	ErrNotStarted = errors.New("service not started")
	ErrStart      = errors.New("service start failed")
	ErrBootstrap  = errors.New("vector bootstrap failed")
)
