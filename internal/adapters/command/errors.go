package command

import "errors"

// ErrPublish is returned when a command could not be sent.
var ErrPublish = errors.New("command publish failed")
