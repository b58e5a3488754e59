package repository

// Option configures a MemoryLedger.
type Option func(*MemoryLedger)

// WithCapacity bounds the ledger; the oldest entries are dropped first.
func WithCapacity(capacity int) Option {
	return func(s *MemoryLedger) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}
