package service

import "errors"

var (
	// ErrStopped is returned when starting a service that was already stopped.
	ErrStopped = errors.New("service stopped")
	// ErrUpstreamUnavailable is returned when a pass-through request fails and
	// nothing cached can answer it.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
