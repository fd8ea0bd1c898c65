// Package broadcast propagates stock snapshots between execution contexts.
// Delivery is best effort and unordered; the periodic poll remains the
// correctness backstop. The in-memory Bus fans out within one process; the
// Redis and NATS coordinators extend it across processes.
package broadcast

import (
	"context"
	"errors"
	"time"

	"github.com/shaharia-lab/stockbell/internal/shop"
)

// ErrBufferFull is returned when a snapshot is dropped because the local
// delivery queue is full.
var ErrBufferFull = errors.New("broadcast buffer full")

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("broadcast closed")

// Handler receives snapshots published by any context.
type Handler func(ctx context.Context, snap *shop.Snapshot)

// Coordinator publishes snapshots and delivers them to subscribers.
type Coordinator interface {
	// Publish delivers snap to current subscribers at most once. It never
	// blocks on slow subscribers.
	Publish(ctx context.Context, snap *shop.Snapshot) error
	// Subscribe registers h and returns a function that removes it.
	Subscribe(h Handler) (unsubscribe func())
	// Close stops delivery and releases resources.
	Close() error
}

// Message is the wire envelope shared by the remote coordinators.
type Message struct {
	Origin   string         `json:"origin"`
	SentAt   time.Time      `json:"sent_at"`
	Snapshot *shop.Snapshot `json:"snapshot"`
}
