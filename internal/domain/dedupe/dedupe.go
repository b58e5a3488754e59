// Package dedupe remembers which live events have already reached the ledger.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// Deduper records event keys so each live event is written once.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it
	// if it was not. The check and the insert are atomic.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so a later poll can retry it, e.g. after the
	// ledger queue rejected the entry.
	Unrecord(ctx context.Context, key string)

	Size() int
}

// memoryDeduper keeps keys in insertion order and drops the oldest once
// maxSize is reached. maxSize <= 0 disables eviction.
type memoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
}

// NewMemory creates an in-memory deduper.
func NewMemory(opts ...Option) Deduper {
	d := &memoryDeduper{
		seen:    make(map[string]*list.Element),
		order:   list.New(),
		maxSize: 10_000,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *memoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[key] = d.order.PushBack(key)
	return false
}

func (d *memoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
	}
}

func (d *memoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}
