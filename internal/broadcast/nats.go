package broadcast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/shaharia-lab/stockbell/internal/shop"
)

var _ Coordinator = (*NATSCoordinator)(nil)

// NATSCoordinator shares snapshots through a NATS subject.
type NATSCoordinator struct {
	relay
	conn    *nats.Conn
	subject string
	sub     *nats.Subscription
}

// NewNATSCoordinator connects to url and subscribes to subject.
func NewNATSCoordinator(url, subject string, logger *slog.Logger) (*NATSCoordinator, error) {
	conn, err := nats.Connect(url, nats.Name("stockbell"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	c := &NATSCoordinator{
		relay:   newRelay(logger),
		conn:    conn,
		subject: subject,
	}
	c.sub, err = conn.Subscribe(subject, func(msg *nats.Msg) {
		c.receive(msg.Data)
	})
	if err != nil {
		conn.Close()
		_ = c.local.Close()
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return c, nil
}

// Publish delivers snap locally and to every other subscribed process.
func (c *NATSCoordinator) Publish(ctx context.Context, snap *shop.Snapshot) error {
	data, err := c.encode(ctx, snap)
	if err != nil {
		return err
	}
	if err := c.conn.Publish(c.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", c.subject, err)
	}
	return nil
}

// Subscribe registers h for snapshots from this and other processes.
func (c *NATSCoordinator) Subscribe(h Handler) func() {
	return c.local.Subscribe(h)
}

// Close unsubscribes, closes the connection and stops local delivery.
func (c *NATSCoordinator) Close() error {
	err := c.sub.Unsubscribe()
	c.conn.Close()
	_ = c.local.Close()
	if err != nil {
		return fmt.Errorf("unsubscribe %s: %w", c.subject, err)
	}
	return nil
}
