package upstream

import crerr "github.com/cockroachdb/errors"

// Sentinel kinds for upstream failures.
var (
	ErrUpstreamStatus = crerr.New("upstream returned non-2xx status")
	ErrDecode         = crerr.New("decode upstream payload")
	ErrRequest        = crerr.New("upstream request failed")
)
