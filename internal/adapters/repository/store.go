// Package repository stores the historical event ledger.
package repository

import (
	"context"
	"time"

	"github.com/okian/canmnt/internal/domain/ledger"
	"github.com/okian/canmnt/internal/domain/model"
)

// Store provides read/write access to the ledger.
type Store interface {
	// Append inserts e unless an entry with the same key exists.
	// Returns true when the entry was added.
	Append(ctx context.Context, e model.LedgerEntry) (bool, error)

	// Query returns entries matching f, newest first.
	Query(ctx context.Context, f ledger.Filter, now time.Time) ([]model.LedgerEntry, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) int
}
