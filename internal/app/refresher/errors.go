package refresher

import "errors"

// Sentinel kinds for refresher errors.
var (
	ErrInvalidConfig  = errors.New("invalid refresher config")
	ErrEmptyPayload   = errors.New("upstream returned an empty payload")
	ErrAlreadyRunning = errors.New("refresher already running")
)
