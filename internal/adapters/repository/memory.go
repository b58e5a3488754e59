package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/canmnt/internal/domain/ledger"
	"github.com/okian/canmnt/internal/domain/model"
	"github.com/okian/canmnt/pkg/metrics"
)

const defaultCapacity = 5_000

// MemoryLedger is an in-memory Store.
//
// Ordering: occurred_at DESC, then key ASC. Entries live in a slice kept in
// that order; inserts use binary search. Once capacity is reached the oldest
// entry is dropped.
type MemoryLedger struct {
	mu       sync.RWMutex
	entries  []model.LedgerEntry
	keys     map[string]struct{}
	capacity int
}

var _ Store = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger(opts ...Option) *MemoryLedger {
	s := &MemoryLedger{
		keys:     make(map[string]struct{}),
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateLedgerEntries(0)
	return s
}

// before reports whether a sorts ahead of b.
func before(a, b *model.LedgerEntry) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.After(b.OccurredAt)
	}
	return a.Key < b.Key
}

// Append implements Store.
func (s *MemoryLedger) Append(_ context.Context, e model.LedgerEntry) (bool, error) { //nolint:gocritic // hugeParam: stored by value
	if e.Key == "" {
		return false, fmt.Errorf("%w: empty key", ErrInvalidEntry)
	}
	if e.OccurredAt.IsZero() {
		return false, fmt.Errorf("%w: %q has no occurrence time", ErrInvalidEntry, e.Key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[e.Key]; ok {
		return false, nil
	}

	i := sort.Search(len(s.entries), func(i int) bool { return before(&e, &s.entries[i]) })
	if len(s.entries) >= s.capacity {
		if i == len(s.entries) {
			// Older than everything we keep.
			return false, nil
		}
		last := s.entries[len(s.entries)-1]
		delete(s.keys, last.Key)
		s.entries = s.entries[:len(s.entries)-1]
	}
	s.entries = append(s.entries, model.LedgerEntry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
	s.keys[e.Key] = struct{}{}

	metrics.UpdateLedgerEntries(len(s.entries))
	return true, nil
}

// Seed appends entries, ignoring duplicates. It returns the number added.
func (s *MemoryLedger) Seed(ctx context.Context, entries []model.LedgerEntry) (int, error) {
	added := 0
	for _, e := range entries {
		ok, err := s.Append(ctx, e)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// Query implements Store.
func (s *MemoryLedger) Query(_ context.Context, f ledger.Filter, now time.Time) ([]model.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f.Apply(s.entries, now), nil
}

// Count implements Store.
func (s *MemoryLedger) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
