// Package pubsub fans live-pulse updates out to streaming viewers.
package pubsub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/okian/canmnt/pkg/logger"
	"github.com/okian/canmnt/pkg/metrics"
)

// EventLivePulseUpdated is published after every successful live-pulse refresh.
const EventLivePulseUpdated = "live_pulse.updated"

const subscriberBuffer = 16

// Event is one broadcast message.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Upstream carries events between service instances.
type Upstream interface {
	Publish(Event) error
	// Listen delivers every event seen on the upstream to fn until Close.
	Listen(fn func(Event)) error
	Close() error
}

// PubSub is an in-process broadcaster with an optional upstream bridge.
type PubSub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	draining    bool
	upstream    Upstream
	logger      logger.Logger
}

// New creates an in-process PubSub.
func New() *PubSub {
	return &PubSub{
		subscribers: make(map[chan Event]struct{}),
		logger:      logger.Get().Named("pubsub"),
	}
}

// NewWithUpstream creates a PubSub whose publishes go through upstream and
// come back to local subscribers from it, so every instance sees them once.
func NewWithUpstream(upstream Upstream) (*PubSub, error) {
	ps := New()
	ps.upstream = upstream
	if err := upstream.Listen(ps.publishLocal); err != nil {
		return nil, err
	}
	return ps, nil
}

// Subscribe registers a buffered subscriber channel. After Drain the returned
// channel is already closed.
func (ps *PubSub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	ps.mu.Lock()
	if ps.draining {
		ps.mu.Unlock()
		close(ch)
		return ch
	}
	ps.subscribers[ch] = struct{}{}
	n := len(ps.subscribers)
	ps.mu.Unlock()

	metrics.AddStreamSubscribers(1)
	ps.logger.Debug(context.Background(), "subscriber added", logger.Int("subscribers", n))
	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (ps *PubSub) Unsubscribe(ch chan Event) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, ok := ps.subscribers[ch]; !ok {
		return
	}
	delete(ps.subscribers, ch)
	close(ch)
	metrics.AddStreamSubscribers(-1)
}

// Subscribers returns the number of local subscribers.
func (ps *PubSub) Subscribers() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers)
}

// Publish broadcasts e. With an upstream the event is delivered locally once
// it comes back from the upstream.
func (ps *PubSub) Publish(e Event) {
	metrics.RecordBroadcast()
	if ps.upstream == nil {
		ps.publishLocal(e)
		return
	}
	if err := ps.upstream.Publish(e); err != nil {
		ps.logger.Warn(context.Background(), "upstream publish failed, delivering locally", logger.String("type", e.Type), logger.Error(err))
		ps.publishLocal(e)
	}
}

// publishLocal delivers e to local subscribers, skipping any whose buffer is full.
func (ps *PubSub) publishLocal(e Event) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for ch := range ps.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// Drain closes every subscriber channel and refuses new ones. Publishing
// keeps working so the upstream bridge stays usable until Close.
func (ps *PubSub) Drain() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.draining = true
	for ch := range ps.subscribers {
		close(ch)
		delete(ps.subscribers, ch)
		metrics.AddStreamSubscribers(-1)
	}
}

// Close drains subscribers and closes the upstream.
func (ps *PubSub) Close() error {
	ps.Drain()
	if ps.upstream != nil {
		return ps.upstream.Close()
	}
	return nil
}
