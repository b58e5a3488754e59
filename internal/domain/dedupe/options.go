package dedupe

// Option configures the in-memory deduper.
type Option func(*memoryDeduper)

// WithMaxSize bounds the number of remembered keys. Zero or negative means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *memoryDeduper) {
		d.maxSize = maxSize
	}
}
