package pubsub

import (
	"context"
	"fmt"
	"sync"

	sonic "github.com/bytedance/sonic"
	"github.com/nats-io/nats.go"

	"github.com/okian/canmnt/pkg/logger"
)

// natsConn is the subset of *nats.Conn the bridge uses.
type natsConn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
	Close()
}

// NATS bridges broadcasts over a core NATS subject.
type NATS struct {
	conn    natsConn
	subject string
	logger  logger.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

var _ Upstream = (*NATS)(nil)

// DialNATS connects to url and returns a bridge publishing on subject.
func DialNATS(url, subject string) (*NATS, error) {
	nc, err := nats.Connect(url, nats.Name("canmnt-warroom"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return NewNATS(nc, subject), nil
}

// NewNATS wraps an existing connection.
func NewNATS(conn natsConn, subject string) *NATS {
	return &NATS{conn: conn, subject: subject, logger: logger.Get().Named("pubsub.nats")}
}

// Publish implements Upstream.
func (n *NATS) Publish(e Event) error {
	data, err := sonic.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}
	return nil
}

// Listen implements Upstream.
func (n *NATS) Listen(fn func(Event)) error {
	sub, err := n.conn.Subscribe(n.subject, func(msg *nats.Msg) {
		var e Event
		if err := sonic.Unmarshal(msg.Data, &e); err != nil {
			n.logger.Warn(context.Background(), "dropping undecodable message", logger.String("subject", msg.Subject), logger.Error(err))
			return
		}
		fn(e)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", n.subject, err)
	}
	n.mu.Lock()
	n.sub = sub
	n.mu.Unlock()
	return nil
}

// Close implements Upstream.
func (n *NATS) Close() error {
	n.mu.Lock()
	sub := n.sub
	n.sub = nil
	n.mu.Unlock()

	var err error
	if sub != nil {
		err = sub.Unsubscribe()
	}
	n.conn.Close()
	return err
}
