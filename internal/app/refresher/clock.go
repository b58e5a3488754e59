package refresher

import "time"

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock abstracts time for the polling loop.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type realTicker struct{ t *time.Ticker }

func (t realTicker) C() <-chan time.Time {
	return t.t.C
}

func (t realTicker) Stop() {
	t.t.Stop()
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock { return realClock{} }
