package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest          = errors.New("bad request")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrStreaming           = errors.New("streaming unsupported")
)

// wrapKind tags err with the operation and the error kind.
func wrapKind(op string, kind, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
