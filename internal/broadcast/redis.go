package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/shaharia-lab/stockbell/internal/shop"
)

var _ Coordinator = (*RedisCoordinator)(nil)

// RedisCoordinator shares snapshots through a Redis pub/sub channel.
type RedisCoordinator struct {
	relay
	client  *redis.Client
	channel string
	pubsub  *redis.PubSub
	wg      sync.WaitGroup
}

// NewRedisCoordinator subscribes to channel and starts relaying messages.
// The client is owned by the caller.
func NewRedisCoordinator(ctx context.Context, client *redis.Client, channel string, logger *slog.Logger) (*RedisCoordinator, error) {
	ps := client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribing to redis channel %q: %w", channel, err)
	}

	c := &RedisCoordinator{
		relay:   newRelay(logger),
		client:  client,
		channel: channel,
		pubsub:  ps,
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for msg := range ps.Channel() {
			c.receive([]byte(msg.Payload))
		}
	}()
	return c, nil
}

// Publish delivers snap locally and to every other subscribed process.
func (c *RedisCoordinator) Publish(ctx context.Context, snap *shop.Snapshot) error {
	data, err := c.encode(ctx, snap)
	if err != nil {
		return err
	}
	if err := c.client.Publish(ctx, c.channel, data).Err(); err != nil {
		return fmt.Errorf("publishing to redis channel %q: %w", c.channel, err)
	}
	return nil
}

// Subscribe registers h for snapshots from this and other processes.
func (c *RedisCoordinator) Subscribe(h Handler) func() {
	return c.local.Subscribe(h)
}

// Close unsubscribes from Redis and stops local delivery.
func (c *RedisCoordinator) Close() error {
	err := c.pubsub.Close()
	c.wg.Wait()
	_ = c.local.Close()
	if err != nil {
		return fmt.Errorf("closing redis subscription: %w", err)
	}
	return nil
}
