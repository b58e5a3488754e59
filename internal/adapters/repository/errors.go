package repository

import "errors"

// ErrInvalidEntry is returned for entries without a key or occurrence time.
var ErrInvalidEntry = errors.New("invalid ledger entry")
