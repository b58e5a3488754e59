package probe

import (
	"errors"

	crerr "github.com/cockroachdb/errors"
)

var (
	// ErrStatus is returned for non-2xx responses.
	ErrStatus = crerr.New("unexpected status")
	// ErrVerification is returned when a served view breaks a board rule.
	ErrVerification = errors.New("verification failed")
	// ErrRequests is returned when any poll failed.
	ErrRequests = errors.New("requests failed")
)
